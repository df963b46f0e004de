package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redtail/muster/internal/artifact"
	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/oracle"
	"github.com/redtail/muster/internal/registry"
	"github.com/redtail/muster/internal/render"
	"github.com/redtail/muster/internal/scenario"
	"github.com/redtail/muster/internal/watchdog"
)

// CheckOpts holds options for the check command.
type CheckOpts struct {
	// Ref narrows the check to one agent. Empty checks every active
	// record.
	Ref string

	JSON   bool
	Styled bool
}

// CheckResult is the machine-readable outcome for one agent.
type CheckResult struct {
	AgentID            string `json:"agent_id"`
	Status             string `json:"status"`
	Phase              string `json:"phase,omitempty"`
	PhaseSource        string `json:"phase_source"`
	Scenario           string `json:"scenario"`
	Recommendation     string `json:"recommendation"`
	AwaitingValidation bool   `json:"awaiting_validation,omitempty"`

	// StalledFor is set when the worker is active but its artifact has
	// not been touched within artifact.stall_threshold.
	StalledFor string `json:"stalled_for,omitempty"`
}

// Check reads the freshest artifact signals for one or all active
// agents and classifies each into its completion scenario.
func Check(ctx context.Context, d Deps, opts CheckOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()
	reg, err := openRegistry(ctx, d)
	if err != nil {
		return err
	}

	var recs []registry.AgentRecord
	if opts.Ref != "" {
		rec, err := resolveAgent(reg, opts.Ref)
		if err != nil {
			return err
		}
		if rec.Status == registry.StatusDeleted {
			return errors.NewWithDetails(errors.EAgentNotActive,
				fmt.Sprintf("agent %q is tombstoned", rec.ID),
				map[string]string{"agent_id": rec.ID})
		}
		recs = append(recs, rec)
	} else {
		recs = reg.Active()
	}
	if len(recs) == 0 {
		if opts.JSON {
			return render.WriteJSON(stdout, []CheckResult{})
		}
		_, _ = fmt.Fprintln(stdout, "no active agents")
		return nil
	}

	reader := newReader(d)
	phaseFn := newPhaseFunc(d)
	results := make([]CheckResult, 0, len(recs))
	rows := make([]render.CheckRow, 0, len(recs))
	for _, rec := range recs {
		out := checkOne(ctx, d, reader, phaseFn, rec)
		results = append(results, CheckResult{
			AgentID:            rec.ID,
			Status:             string(rec.Status),
			Phase:              out.phase,
			PhaseSource:        string(out.source),
			Scenario:           string(out.result.Scenario),
			Recommendation:     out.result.Recommendation,
			AwaitingValidation: out.awaiting,
			StalledFor:         out.stalledFor,
		})
		rows = append(rows, render.CheckRowFrom(rec.ID, out.phase, out.result))
	}

	if opts.JSON {
		return render.WriteJSON(stdout, results)
	}
	render.WriteCheckTable(stdout, rows, opts.Styled)
	return nil
}

// checkOutcome carries one agent's resolved phase and classification.
type checkOutcome struct {
	phase      string
	source     artifact.PhaseSource
	awaiting   bool
	stalledFor string
	result     scenario.Result
}

// checkOne resolves the signals and scenario for a single record.
//
// Phase resolution order: the tracker oracle when the record carries a
// tracker id and the lookup answers, else the artifact's own phase,
// else a synthetic "complete (inferred)" for records the reconciler
// completed without an artifact ever being observed.
func checkOne(ctx context.Context, d Deps, reader *artifact.Reader, phaseFn oracle.PhaseFunc, rec registry.AgentRecord) checkOutcome {
	path := rec.ArtifactPath(d.Config.WorkspaceDoc)
	sig := artifact.Signals{Missing: true}
	if path != "" {
		var err error
		sig, err = reader.ReadSignals(ctx, path)
		if err != nil {
			d.Log.Warn("artifact unreadable during check",
				"agent_id", rec.ID, "path", path, "error", err.Error())
			sig = artifact.Signals{Missing: true}
		}
	}

	phase, source := sig.Phase, sig.PhaseSource
	if source == "" {
		source = artifact.PhaseSourceNone
	}
	if externalID := rec.Meta[oracle.MetaKey]; externalID != "" {
		if p, ok := phaseFn(ctx, externalID); ok {
			phase, source = p, artifact.PhaseSourceOracle
		}
	}
	inferred := false
	if phase == "" && sig.Missing && rec.Status == registry.StatusCompleted {
		// The reconciler already concluded this worker finished; say so,
		// flagged as inferred rather than observed.
		phase = scenario.InferredCompletePhase
		source = artifact.PhaseSourceInferred
		inferred = true
	}

	var result scenario.Result
	if explicit, ok := sig.Explicit(); ok {
		result = explicitResult(explicit)
	} else {
		result = scenario.Classify(scenario.Input{
			Phase:                 phase,
			PhaseInferred:         inferred,
			StandaloneDeliverable: rec.StandaloneDeliverable(),
			DeliverableExists:     rec.StandaloneDeliverable() && !sig.Missing,
			Interactive:           rec.Interactive,
			RoadmapLinked:         rec.Meta[oracle.MetaKey] != "",
			Verification:          sig.Verification,
			NextActions:           sig.NextActions,
			Tests:                 sig.Tests,
		})
	}
	stalledFor := ""
	if result.Scenario == scenario.Working {
		var modTime *time.Time
		if !sig.ModTime.IsZero() {
			modTime = &sig.ModTime
		}
		stall := watchdog.CheckStall(watchdog.ActivitySignals{
			ArtifactModTime: modTime,
			WorkerActive:    rec.Status.IsLive(),
		}, d.Now(), d.Config.Artifact.StallThreshold.Std())
		if stall.IsStalled {
			stalledFor = render.Duration(stall.StalledDuration)
			result.Recommendation += fmt.Sprintf("; no artifact update in %s, worker may be stalled", stalledFor)
		}
	}
	if sig.AwaitingValidation {
		result.Recommendation += "; worker flagged AWAITING_VALIDATION"
	}
	return checkOutcome{phase: phase, source: source, awaiting: sig.AwaitingValidation, stalledFor: stalledFor, result: result}
}

// explicitResult maps a BLOCKED or QUESTION marker straight to an
// outcome; classification never runs when the worker asked for
// attention itself.
func explicitResult(sig *artifact.ExplicitSignal) scenario.Result {
	reason := render.Truncate(sig.Reason, scenario.QuoteLimit)
	if sig.Kind == artifact.SignalBlocked {
		return scenario.Result{
			Scenario:       scenario.Blocked,
			Recommendation: fmt.Sprintf("worker reports BLOCKED: %q", reason),
		}
	}
	return scenario.Result{
		Scenario:       scenario.ActionNeeded,
		Recommendation: fmt.Sprintf("worker asked a question: %q", reason),
	}
}
