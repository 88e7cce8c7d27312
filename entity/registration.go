package entity

import "time"

type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusAttended   RegistrationStatus = "attended"
)

// Registration is one ticket holder's seat at one event.
// CheckedInAt is write-once: it moves from nil to a fixed value and never back.
// Status, CheckedInAt and CheckedInBy always change together.
type Registration struct {
	Id          string             `json:"id" bson:"id"`
	EventId     string             `json:"event_id" bson:"event_id"`
	HolderId    string             `json:"holder_id" bson:"holder_id"`
	TicketCode  string             `json:"ticket_code" bson:"ticket_code"`
	Status      RegistrationStatus `json:"status" bson:"status"`
	CheckedInAt *time.Time         `json:"checked_in_at,omitempty" bson:"checked_in_at"`
	CheckedInBy string             `json:"checked_in_by,omitempty" bson:"checked_in_by,omitempty"`
}

func (r *Registration) IsCheckedIn() bool {
	return r.CheckedInAt != nil
}

// Consistent reports whether status, timestamp and operator agree with each other.
func (r *Registration) Consistent() bool {
	attended := r.Status == StatusAttended
	stamped := r.CheckedInAt != nil
	by := r.CheckedInBy != ""
	return attended == stamped && stamped == by
}

// RegistrationView is the read-only projection shown to door staff.
type RegistrationView struct {
	Registration
	Holder HolderView `json:"holder"`
	Event  EventView  `json:"event"`
}
