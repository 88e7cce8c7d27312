// Package admission decides whether the door is open for an event.
package admission

import (
	"time"

	"doorcheck/entity"
)

// Lead is how long before the event start the door opens. There is no
// closing time: late arrivals are always admissible.
const Lead = 60 * time.Minute

// Check is a pure function of the event start and the current instant.
func Check(start *time.Time, now time.Time) entity.Admission {
	if start == nil {
		// not linked to a timed event: always admissible
		return entity.Admission{Admissible: true, Unscheduled: true}
	}
	opens := start.Add(-Lead)
	if now.Before(opens) {
		return entity.Admission{Admissible: false, OpensAt: &opens}
	}
	return entity.Admission{Admissible: true, OpensAt: &opens}
}

// Err turns a negative decision into *entity.TooEarlyError.
func Err(decision entity.Admission) error {
	if decision.Admissible {
		return nil
	}
	var opens time.Time
	if decision.OpensAt != nil {
		opens = *decision.OpensAt
	}
	return &entity.TooEarlyError{OpensAt: opens}
}
