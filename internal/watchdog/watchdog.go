// Package watchdog provides stall detection for active workers.
//
// A worker is considered stalled when its coordination artifact has not
// been updated within the configured threshold while the worker is still
// active. Staleness is advisory: callers surface it alongside the normal
// scenario classification, they never act on it automatically.
package watchdog

import "time"

// ActivitySignals contains signals used to determine if a worker is stalled.
type ActivitySignals struct {
	// ArtifactModTime is the modification time of the coordination
	// artifact. Nil if the artifact does not exist.
	ArtifactModTime *time.Time

	// WorkerActive is true if the worker is active and expected to be
	// making progress.
	WorkerActive bool
}

// StallResult contains the result of a stall check.
type StallResult struct {
	// IsStalled is true if the worker is considered stalled.
	IsStalled bool

	// StalledDuration is the time since the artifact was last updated.
	// Only meaningful when IsStalled is true.
	StalledDuration time.Duration
}

// CheckStall determines if a worker is stalled based on activity signals.
//
// A worker is considered stalled if:
// - The worker is active (progress is expected)
// - The artifact exists and hasn't been modified within the threshold
//
// If the artifact doesn't exist the worker is not considered stalled;
// a missing artifact is reported through scenario classification instead.
// A threshold of zero or less disables the check.
func CheckStall(signals ActivitySignals, now time.Time, threshold time.Duration) StallResult {
	if threshold <= 0 {
		return StallResult{IsStalled: false}
	}

	// Inactive workers aren't expected to touch the artifact.
	if !signals.WorkerActive {
		return StallResult{IsStalled: false}
	}

	// No artifact = can't determine stall state = not stalled.
	if signals.ArtifactModTime == nil {
		return StallResult{IsStalled: false}
	}

	stalledDuration := now.Sub(*signals.ArtifactModTime)
	if stalledDuration >= threshold {
		return StallResult{
			IsStalled:       true,
			StalledDuration: stalledDuration,
		}
	}

	return StallResult{IsStalled: false}
}
