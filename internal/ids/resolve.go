// Package ids resolves user-supplied agent identifiers for muster
// commands. It implements exact-match and unique-prefix resolution.
package ids

import (
	"fmt"
	"sort"
	"strings"
)

// AgentRef is the slice of an agent record the resolver needs.
type AgentRef struct {
	// ID is the agent's primary key.
	ID string

	// Handle is the supervisor session name. Empty for handle-less
	// backends.
	Handle string

	// Task is carried for candidate listings in error output.
	Task string

	// Active reports whether the record is still live. Handle matching
	// only considers active refs; id matching considers all of them so
	// finished agents stay addressable.
	Active bool
}

// ErrNotFound indicates no agent matched the input, exactly or by
// prefix.
type ErrNotFound struct {
	Input string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("agent not found: %q", e.Input)
}

// ErrAmbiguous indicates a prefix matched multiple agent ids.
type ErrAmbiguous struct {
	Input      string
	Candidates []AgentRef // sorted by ID ascending
}

func (e *ErrAmbiguous) Error() string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = c.ID
	}
	return fmt.Sprintf("ambiguous agent id %q matches: %s", e.Input, strings.Join(ids, ", "))
}

// ResolveAgentRef resolves input to a single agent.
//
// Resolution rules:
//  1. Exact id match wins. Ids are unique, so at most one exists.
//  2. Otherwise input is treated as an id prefix: zero matches is not
//     found, one resolves, several are ambiguous with candidates
//     returned in sorted order.
//  3. Input is trimmed first; empty input is not found.
func ResolveAgentRef(input string, refs []AgentRef) (AgentRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return AgentRef{}, &ErrNotFound{Input: ""}
	}

	for _, ref := range refs {
		if ref.ID == input {
			return ref, nil
		}
	}

	var matches []AgentRef
	for _, ref := range refs {
		if strings.HasPrefix(ref.ID, input) {
			matches = append(matches, ref)
		}
	}

	switch len(matches) {
	case 0:
		return AgentRef{}, &ErrNotFound{Input: input}
	case 1:
		return matches[0], nil
	default:
		sortCandidates(matches)
		return AgentRef{}, &ErrAmbiguous{Input: input, Candidates: matches}
	}
}

// ResolveAgentRefWithHandle resolves input as a session handle first,
// then falls back to id resolution.
//
// Handle matching is exact and limited to active refs, since only
// active agents own their handle; a finished agent's handle may
// already belong to a newer one.
func ResolveAgentRefWithHandle(input string, refs []AgentRef) (AgentRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return AgentRef{}, &ErrNotFound{Input: ""}
	}

	var handleMatches []AgentRef
	for _, ref := range refs {
		if ref.Active && ref.Handle != "" && ref.Handle == input {
			handleMatches = append(handleMatches, ref)
		}
	}
	if len(handleMatches) == 1 {
		return handleMatches[0], nil
	}
	if len(handleMatches) > 1 {
		sortCandidates(handleMatches)
		return AgentRef{}, &ErrAmbiguous{Input: input, Candidates: handleMatches}
	}

	return ResolveAgentRef(input, refs)
}

func sortCandidates(refs []AgentRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
}
