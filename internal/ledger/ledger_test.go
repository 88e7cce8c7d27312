package ledger

import (
	"fmt"
	"testing"
	"time"

	"doorcheck/entity"
)

func view(id string, at *time.Time) *entity.RegistrationView {
	v := &entity.RegistrationView{
		Registration: entity.Registration{
			Id:         id,
			EventId:    "ev-1",
			TicketCode: "MAIN-ABCDE-" + id,
			Status:     entity.StatusRegistered,
		},
		Holder: entity.HolderView{Name: "Holder " + id},
	}
	if at != nil {
		v.Status = entity.StatusAttended
		v.CheckedInAt = at
		v.CheckedInBy = "op-1"
	}
	return v
}

func ptr(t time.Time) *time.Time { return &t }

func TestBuildCounts(t *testing.T) {
	now := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)
	views := []*entity.RegistrationView{
		view("0001", ptr(now.Add(-30*time.Minute))),
		view("0002", ptr(now.Add(-10*time.Minute))),
		view("0003", ptr(now.Add(-26*time.Hour))),
		view("0004", nil),
		view("0005", nil),
		nil,
	}

	stats := Build("ev-1", views, now, time.UTC, 10)

	if stats.Total != 5 {
		t.Errorf("Total = %d, want 5", stats.Total)
	}
	if stats.CheckedIn != 3 {
		t.Errorf("CheckedIn = %d, want 3", stats.CheckedIn)
	}
	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Today != 2 {
		t.Errorf("Today = %d, want 2", stats.Today)
	}
	if stats.Total != stats.CheckedIn+stats.Pending {
		t.Error("Total must equal CheckedIn + Pending")
	}

	wantOrder := []string{"0002", "0001", "0003"}
	if len(stats.Recent) != len(wantOrder) {
		t.Fatalf("Recent has %d entries, want %d", len(stats.Recent), len(wantOrder))
	}
	for i, id := range wantOrder {
		if stats.Recent[i].RegistrationId != id {
			t.Errorf("Recent[%d] = %s, want %s", i, stats.Recent[i].RegistrationId, id)
		}
	}
	if stats.Recent[0].HolderName != "Holder 0002" {
		t.Errorf("HolderName = %q, want %q", stats.Recent[0].HolderName, "Holder 0002")
	}
}

func TestBuildTodayUsesLocation(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// 00:30 in Warsaw is still the previous day in UTC
	now := time.Date(2026, 10, 16, 0, 30, 0, 0, warsaw)
	views := []*entity.RegistrationView{
		view("0001", ptr(time.Date(2026, 10, 16, 0, 10, 0, 0, warsaw))),
		view("0002", ptr(time.Date(2026, 10, 15, 23, 50, 0, 0, warsaw))),
	}

	if got := Build("ev-1", views, now, warsaw, 0).Today; got != 1 {
		t.Errorf("Today in Warsaw = %d, want 1", got)
	}
	if got := Build("ev-1", views, now, time.UTC, 0).Today; got != 2 {
		t.Errorf("Today in UTC = %d, want 2", got)
	}
}

func TestBuildRecentLimit(t *testing.T) {
	now := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)
	var views []*entity.RegistrationView
	for i := 0; i < 30; i++ {
		views = append(views, view(fmt.Sprintf("%04d", i), ptr(now.Add(-time.Duration(i)*time.Minute))))
	}

	stats := Build("ev-1", views, now, nil, 0)
	if len(stats.Recent) != DefaultRecentLimit {
		t.Fatalf("Recent has %d entries, want %d", len(stats.Recent), DefaultRecentLimit)
	}
	if stats.Recent[0].RegistrationId != "0000" {
		t.Errorf("newest = %s, want 0000", stats.Recent[0].RegistrationId)
	}
}

func TestBuildEmpty(t *testing.T) {
	stats := Build("ev-1", nil, time.Now(), time.UTC, 5)
	if stats.Total != 0 || stats.CheckedIn != 0 || stats.Pending != 0 {
		t.Errorf("stats = %+v, want zero counts", stats)
	}
	if stats.Recent == nil {
		t.Error("Recent should be an empty slice, not nil")
	}
}
