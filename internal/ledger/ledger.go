// Package ledger derives check-in statistics from the current registrations.
// Nothing here is stored; every call recomputes from the rows it is given.
package ledger

import (
	"sort"
	"time"

	"doorcheck/entity"
)

const DefaultRecentLimit = 20

// Build counts registrations and lists the latest check-ins, newest first.
// "Today" is the calendar day of now in loc.
func Build(eventId string, views []*entity.RegistrationView, now time.Time, loc *time.Location, recentLimit int) *entity.Stats {
	if loc == nil {
		loc = time.UTC
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats := &entity.Stats{
		EventId: eventId,
		Recent:  make([]entity.RecentCheckIn, 0),
		AsOf:    now,
	}
	for _, v := range views {
		if v == nil {
			continue
		}
		stats.Total++
		if !v.IsCheckedIn() {
			stats.Pending++
			continue
		}
		stats.CheckedIn++
		at := *v.CheckedInAt
		if !at.Before(dayStart) && at.Before(dayEnd) {
			stats.Today++
		}
		stats.Recent = append(stats.Recent, entity.RecentCheckIn{
			RegistrationId: v.Id,
			TicketCode:     v.TicketCode,
			HolderName:     v.Holder.Name,
			CheckedInAt:    at,
			CheckedInBy:    v.CheckedInBy,
		})
	}

	sort.SliceStable(stats.Recent, func(i, j int) bool {
		return stats.Recent[i].CheckedInAt.After(stats.Recent[j].CheckedInAt)
	})
	if len(stats.Recent) > recentLimit {
		stats.Recent = stats.Recent[:recentLimit]
	}
	return stats
}
