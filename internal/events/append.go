// Package events provides the append-only audit trail for muster.
// Events are stored in a single JSONL file in the data directory.
package events

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Event represents a single line in events.jsonl. This is the public
// contract for the events file format.
type Event struct {
	SchemaVersion string         `json:"schema_version"`
	Timestamp     string         `json:"timestamp"` // RFC3339
	AgentID       string         `json:"agent_id,omitempty"`
	Event         string         `json:"event"`
	Data          map[string]any `json:"data,omitempty"`
}

const SchemaVersion = "1.0"

// AppendEvent appends a single event to the JSONL file at path,
// creating it lazily.
//
// Best-effort: errors are returned but callers should typically log
// and continue with the main operation.
func AppendEvent(path string, e Event) (err error) {
	if e.SchemaVersion == "" {
		e.SchemaVersion = SchemaVersion
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = f.Write(data)
	return err
}

// RegisteredData returns the data map for an agent_registered event.
func RegisteredData(task, handle, backend string) map[string]any {
	data := map[string]any{
		"task":    task,
		"backend": backend,
	}
	if handle != "" {
		data["handle"] = handle
	}
	return data
}

// AbandonedData returns the data map for an agent_abandoned event.
func AbandonedData(reason string) map[string]any {
	return map[string]any{
		"reason": reason,
	}
}

// TombstonedData returns the data map for an agent_tombstoned event.
func TombstonedData(priorStatus string) map[string]any {
	return map[string]any{
		"prior_status": priorStatus,
	}
}

// ReconcileFinishedData returns the data map for a reconcile_finished
// event.
func ReconcileFinishedData(checked, completed, terminated, skipped int) map[string]any {
	return map[string]any{
		"checked":    checked,
		"completed":  completed,
		"terminated": terminated,
		"skipped":    skipped,
	}
}

// ReconciledData returns the data map for an agent_reconciled event.
// Reason strings are bounded to 512 bytes max.
func ReconciledData(from, to, reason string) map[string]any {
	const maxReasonLen = 512
	if len(reason) > maxReasonLen {
		reason = reason[:maxReasonLen]
	}
	data := map[string]any{
		"from": from,
		"to":   to,
	}
	if reason != "" {
		data["reason"] = reason
	}
	return data
}
