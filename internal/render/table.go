package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/redtail/muster/internal/registry"
	"github.com/redtail/muster/internal/scenario"
)

// TaskMaxLen is the display width budget for task descriptions.
const TaskMaxLen = 50

// AgentRow is one formatted line of the ls table.
type AgentRow struct {
	ID      string
	Task    string
	Backend string
	Status  string
	Age     string
	Handle  string
}

// AgentRowFrom formats one record for the ls table.
func AgentRowFrom(rec registry.AgentRecord, now time.Time) AgentRow {
	task := rec.Task
	if task == "" {
		task = "<untitled>"
	}
	handle := rec.Handle
	if handle == "" {
		handle = "-"
	}
	return AgentRow{
		ID:      rec.ID,
		Task:    Truncate(task, TaskMaxLen),
		Backend: string(rec.Backend),
		Status:  string(rec.Status),
		Age:     RelativeTime(rec.SpawnedAt, now),
		Handle:  handle,
	}
}

// WriteAgentTable renders the ls table. styled selects rounded borders
// for terminals; piped output gets plain aligned columns.
func WriteAgentTable(w io.Writer, rows []AgentRow, styled bool) {
	tw := newWriter(w, styled)
	tw.AppendHeader(table.Row{"ID", "TASK", "BACKEND", "STATUS", "AGE", "HANDLE"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.ID, row.Task, row.Backend, row.Status, row.Age, row.Handle})
	}
	tw.Render()
}

// CheckRow is one formatted line of the check table.
type CheckRow struct {
	ID             string
	Phase          string
	Scenario       string
	Recommendation string
}

// CheckRowFrom formats one classification for the check table.
func CheckRowFrom(id, phase string, result scenario.Result) CheckRow {
	if phase == "" {
		phase = "-"
	}
	return CheckRow{
		ID:             id,
		Phase:          phase,
		Scenario:       string(result.Scenario),
		Recommendation: result.Recommendation,
	}
}

// WriteCheckTable renders the check table.
func WriteCheckTable(w io.Writer, rows []CheckRow, styled bool) {
	tw := newWriter(w, styled)
	tw.AppendHeader(table.Row{"ID", "PHASE", "SCENARIO", "RECOMMENDATION"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.ID, row.Phase, row.Scenario, row.Recommendation})
	}
	tw.Render()
}

func newWriter(w io.Writer, styled bool) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if styled {
		tw.SetStyle(table.StyleRounded)
		return tw
	}
	plain := table.StyleDefault
	plain.Options.DrawBorder = false
	plain.Options.SeparateColumns = false
	plain.Options.SeparateHeader = false
	plain.Options.SeparateRows = false
	tw.SetStyle(plain)
	return tw
}

// WriteJSON writes v as indented JSON with a trailing newline, the
// stable machine-readable form behind every --json flag.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
