package entity

import "time"

// Event is owned by the events manager; check-in only reads its start time.
type Event struct {
	Id        string     `json:"id" bson:"id"`
	Title     string     `json:"title" bson:"title"`
	StartTime *time.Time `json:"start_time,omitempty" bson:"start_time"`
}

type EventView struct {
	Id        string     `json:"id"`
	Title     string     `json:"title"`
	StartTime *time.Time `json:"start_time,omitempty"`
}

func (e *Event) View() EventView {
	return EventView{
		Id:        e.Id,
		Title:     e.Title,
		StartTime: e.StartTime,
	}
}
