package entity

import "time"

type RecentCheckIn struct {
	RegistrationId string    `json:"registration_id"`
	TicketCode     string    `json:"ticket_code"`
	HolderName     string    `json:"holder_name"`
	CheckedInAt    time.Time `json:"checked_in_at"`
	CheckedInBy    string    `json:"checked_in_by"`
}

// Stats is derived from current registrations on every request.
type Stats struct {
	EventId   string          `json:"event_id"`
	Total     int             `json:"total"`
	CheckedIn int             `json:"checked_in"`
	Pending   int             `json:"pending"`
	Today     int             `json:"today"`
	Recent    []RecentCheckIn `json:"recent"`
	AsOf      time.Time       `json:"as_of"`
}
