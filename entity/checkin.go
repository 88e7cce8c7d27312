package entity

import (
	"net/http"
	"time"

	"doorcheck/lib/validate"
)

// Admission is the policy decision for one event at one instant.
type Admission struct {
	Admissible  bool       `json:"admissible"`
	OpensAt     *time.Time `json:"opens_at,omitempty"`
	Unscheduled bool       `json:"unscheduled,omitempty"`
}

// Resolution is what the operator sees before confirming a check-in.
// AlreadyCheckedIn reflects the row as read and is advisory only.
type Resolution struct {
	Registration     *RegistrationView `json:"registration"`
	Admission        Admission         `json:"admission"`
	AlreadyCheckedIn bool              `json:"already_checked_in"`
}

type CommitOutcome string

const (
	OutcomeCommitted        CommitOutcome = "committed"
	OutcomeAlreadyCheckedIn CommitOutcome = "already_checked_in"
	OutcomeNotFound         CommitOutcome = "not_found"
)

// CommitResult reports the conditional write. For an already checked-in
// registration CheckedInAt and CheckedInBy are the values stored by the first
// successful commit.
type CommitResult struct {
	Outcome        CommitOutcome `json:"outcome"`
	RegistrationId string        `json:"registration_id"`
	CheckedInAt    *time.Time    `json:"checked_in_at,omitempty"`
	CheckedInBy    string        `json:"checked_in_by,omitempty"`
}

func (c *CommitResult) Committed() bool {
	return c.Outcome == OutcomeCommitted
}

// CodeRequest is the body of the resolve and one-shot check-in calls.
type CodeRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

func (c *CodeRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

// AdmitResult is the outcome of the one-shot pipeline. Commit is nil when the
// pipeline stopped before the write, e.g. because the window is not open.
type AdmitResult struct {
	Resolution *Resolution   `json:"resolution"`
	Commit     *CommitResult `json:"commit,omitempty"`
}
