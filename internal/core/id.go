// Package core provides foundational utilities for muster.
package core

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/redtail/muster/internal/errors"
)

// Agent id validation constants.
const (
	IDMinLen = 2
	IDMaxLen = 64

	// TaskMaxLen bounds the free-text task description.
	TaskMaxLen = 200
)

// idPattern validates agent ids:
// - Must start with a lowercase letter
// - May contain lowercase letters, digits, and hyphens
// - No consecutive hyphens (enforced by pattern structure)
// - No trailing hyphen (enforced by pattern structure)
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// ValidateAgentID checks if an id meets all validation requirements.
// Returns nil if valid, or E_INVALID_ID error with details.
func ValidateAgentID(id string) error {
	if len(id) < IDMinLen {
		return errors.NewWithDetails(
			errors.EInvalidID,
			"agent id must be at least 2 characters",
			map[string]string{"agent_id": id},
		)
	}
	if len(id) > IDMaxLen {
		return errors.NewWithDetails(
			errors.EInvalidID,
			"agent id must be at most 64 characters",
			map[string]string{"agent_id": id},
		)
	}
	if !idPattern.MatchString(id) {
		return errors.NewWithDetails(
			errors.EInvalidID,
			"agent id must contain only lowercase letters, digits, and hyphens; must start with a letter; no consecutive or trailing hyphens",
			map[string]string{"agent_id": id},
		)
	}
	return nil
}

// ValidateTask checks the free-text task description.
func ValidateTask(task string) error {
	trimmed := strings.TrimSpace(task)
	if trimmed == "" {
		return errors.New(errors.EInvalidTask, "task description must not be empty")
	}
	if len(trimmed) > TaskMaxLen {
		return errors.NewWithDetails(
			errors.EInvalidTask,
			"task description must be at most 200 characters",
			map[string]string{"length": strconv.Itoa(len(trimmed))},
		)
	}
	return nil
}

// ShortID returns an 8-hex-char identifier fragment derived from a
// random UUID.
func ShortID() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:8]
}

// NewAgentID mints an agent id from a task description: a slug of the
// task (bounded) plus a short random suffix, e.g. "fix-parser-9b2c11d0".
// The result always passes ValidateAgentID.
func NewAgentID(task string) string {
	slug := Slugify(task, 24)
	if slug == "" {
		slug = "agent"
	}
	return slug + "-" + ShortID()
}

// Slugify lowercases s, maps runs of non-alphanumerics to single
// hyphens, trims hyphens, and bounds the result to maxLen without
// leaving a trailing hyphen.
func Slugify(s string, maxLen int) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	// ids must start with a letter
	slug = strings.TrimLeft(slug, "0123456789-")
	return slug
}
