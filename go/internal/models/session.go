package models

import (
	"fmt"
	"time"
)

// Phase defines the stage a discussion session is in.
type Phase string

const (
	PhasePrep       Phase = "prep"
	PhaseDiscussion Phase = "discussion"
	PhaseSurvey     Phase = "survey"
	PhaseCompleted  Phase = "completed"
)

// phaseOrder gives phases their monotonic ordering. Transitions only ever
// move forward; a server read reporting an earlier phase is stale.
var phaseOrder = map[Phase]int{
	PhasePrep:       0,
	PhaseDiscussion: 1,
	PhaseSurvey:     2,
	PhaseCompleted:  3,
}

// Order returns the position of the phase in the session lifecycle,
// or -1 for an unknown phase.
func (p Phase) Order() int {
	if o, ok := phaseOrder[p]; ok {
		return o
	}
	return -1
}

// Before reports whether p comes strictly earlier than other.
func (p Phase) Before(other Phase) bool {
	return p.Order() >= 0 && other.Order() >= 0 && p.Order() < other.Order()
}

// Terminal reports whether the session is past the discussion stage.
func (p Phase) Terminal() bool {
	return p == PhaseSurvey || p == PhaseCompleted
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	switch p {
	case PhasePrep:
		return PhaseDiscussion
	case PhaseDiscussion:
		return PhaseSurvey
	default:
		return PhaseCompleted
	}
}

// ParsePhase validates a phase string from the server.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if _, ok := phaseOrder[p]; !ok {
		return "", fmt.Errorf("unknown session phase %q", s)
	}
	return p, nil
}

// PhaseTimer is the client's view of the server-side timer for one phase.
// EndTime is derived as now+remaining at the last sync; the local countdown
// between syncs is advisory only.
type PhaseTimer struct {
	Phase            Phase     `json:"phase"`
	DurationSeconds  int       `json:"duration_seconds"`
	RemainingSeconds int       `json:"remaining_seconds"`
	EndTime          time.Time `json:"end_time"`
	Active           bool      `json:"active"`
}

// Remaining recomputes the seconds left from wall-clock time, clamped at
// zero. Elapsed wall time, not tick count, is what survives backgrounding.
func (t *PhaseTimer) Remaining(now time.Time) int {
	if t.EndTime.IsZero() {
		return t.RemainingSeconds
	}
	rem := int(t.EndTime.Sub(now).Round(time.Second).Seconds())
	if rem < 0 {
		return 0
	}
	return rem
}

// SessionRules carries the per-level phase durations the server configured
// for a session. Times are in minutes, as the backend reports them.
type SessionRules struct {
	PrepTime       int `json:"prep_time"`
	DiscussionTime int `json:"discussion_time"`
	SurveyTime     int `json:"survey_time"`
	Level          int `json:"level"`
}

// Participant is one student in a session.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Level int    `json:"level,omitempty"`
}

// ReadyStatus is one student's ready flag in the lobby.
type ReadyStatus struct {
	StudentID string `json:"student_id"`
	IsReady   bool   `json:"is_ready"`
}
