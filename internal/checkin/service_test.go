package checkin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/database"
)

var (
	volunteer = &entity.Operator{Id: "op-vol", Name: "Door 1", Role: entity.RoleVolunteer, Token: "volunteer-token"}
	admin     = &entity.Operator{Id: "op-adm", Name: "Lead", Role: entity.RoleAdmin, Token: "admin-token-01"}
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store *database.Memory
	svc   *Service
	now   time.Time
	regId string
}

func newFixture(t *testing.T, start *time.Time) *fixture {
	t.Helper()
	f := &fixture{store: database.NewMemory()}
	f.store.AddEvent(entity.Event{Id: "main", Title: "Main Stage", StartTime: start})
	f.store.AddHolder(entity.Holder{Id: "h-1", Name: "Ada Lovelace", Country: "GB"})
	id, err := f.store.AddRegistration(entity.Registration{EventId: "main", HolderId: "h-1", TicketCode: "MAIN-ABCDE-1234"})
	if err != nil {
		t.Fatal(err)
	}
	f.regId = id
	f.svc = New(f.store, discard(), Options{Clock: func() time.Time { return f.now }})
	return f
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestAdmitEndToEnd(t *testing.T) {
	start := at(19, 0)
	f := newFixture(t, &start)
	ctx := context.Background()

	f.now = at(18, 0)
	res, err := f.svc.Admit(ctx, volunteer, "main", "main-abcde-1234")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if res.Commit == nil || !res.Commit.Committed() {
		t.Fatalf("commit = %+v, want committed", res.Commit)
	}
	if !res.Commit.CheckedInAt.Equal(at(18, 0)) || res.Commit.CheckedInBy != volunteer.Id {
		t.Errorf("commit = %+v", res.Commit)
	}

	f.now = at(18, 5)
	res, err = f.svc.Admit(ctx, admin, "main", "MAIN-ABCDE-1234")
	if err != nil {
		t.Fatalf("second Admit: %v", err)
	}
	if !res.Resolution.AlreadyCheckedIn {
		t.Error("resolution does not report the earlier check-in")
	}
	if res.Commit.Outcome != entity.OutcomeAlreadyCheckedIn {
		t.Fatalf("outcome = %q, want already_checked_in", res.Commit.Outcome)
	}
	if !res.Commit.CheckedInAt.Equal(at(18, 0)) || res.Commit.CheckedInBy != volunteer.Id {
		t.Errorf("second commit = %+v, want original stamp", res.Commit)
	}

	reg, _ := f.store.Registration(f.regId)
	if !reg.Consistent() || !reg.CheckedInAt.Equal(at(18, 0)) {
		t.Errorf("stored = %+v", reg)
	}
}

func TestAdmitTooEarly(t *testing.T) {
	start := at(19, 0)
	f := newFixture(t, &start)
	f.now = at(17, 59)

	res, err := f.svc.Admit(context.Background(), volunteer, "main", "MAIN-ABCDE-1234")
	if !errors.Is(err, entity.ErrTooEarly) {
		t.Fatalf("err = %v, want ErrTooEarly", err)
	}
	var early *entity.TooEarlyError
	if !errors.As(err, &early) || !early.OpensAt.Equal(at(18, 0)) {
		t.Errorf("opens at = %+v", early)
	}
	if res == nil || res.Commit != nil {
		t.Errorf("result = %+v, want resolution without commit", res)
	}
	reg, _ := f.store.Registration(f.regId)
	if reg.IsCheckedIn() {
		t.Error("too early scan was written")
	}
}

func TestResolve(t *testing.T) {
	start := at(19, 0)

	t.Run("closed window is a decision", func(t *testing.T) {
		f := newFixture(t, &start)
		f.now = at(17, 0)
		res, err := f.svc.Resolve(context.Background(), volunteer, "main", " main-abcde-1234\n")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if res.Admission.Admissible || res.Admission.OpensAt == nil || !res.Admission.OpensAt.Equal(at(18, 0)) {
			t.Errorf("admission = %+v", res.Admission)
		}
		if res.Registration.Holder.Name != "Ada Lovelace" || res.AlreadyCheckedIn {
			t.Errorf("resolution = %+v", res)
		}
	})

	t.Run("unscheduled", func(t *testing.T) {
		f := newFixture(t, nil)
		f.now = at(3, 0)
		res, err := f.svc.Resolve(context.Background(), volunteer, "main", "MAIN-ABCDE-1234")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !res.Admission.Admissible || !res.Admission.Unscheduled {
			t.Errorf("admission = %+v", res.Admission)
		}
	})

	errorCases := []struct {
		name    string
		op      *entity.Operator
		eventId string
		code    string
		want    error
	}{
		{"invalid format", volunteer, "main", "not a code", entity.ErrInvalidFormat},
		{"unknown code", volunteer, "main", "MAIN-ZZZZZ-0000", entity.ErrNotFound},
		{"other event", volunteer, "side", "MAIN-ABCDE-1234", entity.ErrNotFound},
		{"no operator", nil, "main", "MAIN-ABCDE-1234", entity.ErrForbidden},
		{"unknown role", &entity.Operator{Id: "x", Role: "guest"}, "main", "MAIN-ABCDE-1234", entity.ErrForbidden},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &start)
			f.now = at(18, 30)
			_, err := f.svc.Resolve(context.Background(), tt.op, tt.eventId, tt.code)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCommitRace(t *testing.T) {
	f := newFixture(t, nil)
	f.now = at(12, 0)

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := make(map[entity.CommitOutcome]int)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Commit(context.Background(), volunteer, f.regId)
			if err != nil {
				t.Errorf("Commit: %v", err)
				return
			}
			mu.Lock()
			outcomes[res.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if outcomes[entity.OutcomeCommitted] != 1 {
		t.Errorf("committed %d times, want 1", outcomes[entity.OutcomeCommitted])
	}
	if outcomes[entity.OutcomeAlreadyCheckedIn] != workers-1 {
		t.Errorf("already checked in %d times, want %d", outcomes[entity.OutcomeAlreadyCheckedIn], workers-1)
	}
}

func TestCommitOutlivesCaller(t *testing.T) {
	f := newFixture(t, nil)
	f.now = at(12, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.Commit(ctx, volunteer, f.regId)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !res.Committed() {
		t.Errorf("outcome = %q, want committed", res.Outcome)
	}
}

func TestCommitUnknownRegistration(t *testing.T) {
	f := newFixture(t, nil)
	for _, id := range []string{"", "missing"} {
		res, err := f.svc.Commit(context.Background(), volunteer, id)
		if err != nil {
			t.Fatalf("Commit(%q): %v", id, err)
		}
		if res.Outcome != entity.OutcomeNotFound {
			t.Errorf("Commit(%q) outcome = %q", id, res.Outcome)
		}
	}
	if _, err := f.svc.Commit(context.Background(), nil, f.regId); !errors.Is(err, entity.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

// stallStore blocks every call until its context ends.
type stallStore struct{}

func (stallStore) FindByCode(ctx context.Context, _, _ string) (*entity.RegistrationView, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallStore) MarkAttended(ctx context.Context, _, _ string, _ time.Time) (*entity.CommitResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallStore) EventRegistrations(ctx context.Context, _ string) ([]*entity.RegistrationView, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreTimeoutIsTransient(t *testing.T) {
	svc := New(stallStore{}, discard(), Options{Timeout: 20 * time.Millisecond})
	ctx := context.Background()

	if _, err := svc.Resolve(ctx, volunteer, "main", "MAIN-ABCDE-1234"); !errors.Is(err, entity.ErrTransientIO) {
		t.Errorf("Resolve err = %v, want ErrTransientIO", err)
	}
	if _, err := svc.Commit(ctx, volunteer, "r-1"); !errors.Is(err, entity.ErrTransientIO) {
		t.Errorf("Commit err = %v, want ErrTransientIO", err)
	}
	if _, err := svc.Stats(ctx, volunteer, "main"); !errors.Is(err, entity.ErrTransientIO) {
		t.Errorf("Stats err = %v, want ErrTransientIO", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.store.AddRegistration(entity.Registration{EventId: "main", HolderId: "h-1", TicketCode: "MAIN-ABCDE-5678"}); err != nil {
		t.Fatal(err)
	}
	f.now = at(12, 0)
	if _, err := f.svc.Commit(context.Background(), volunteer, f.regId); err != nil {
		t.Fatal(err)
	}

	stats, err := f.svc.Stats(context.Background(), admin, "main")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.CheckedIn != 1 || stats.Pending != 1 || stats.Today != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Recent) != 1 || stats.Recent[0].HolderName != "Ada Lovelace" {
		t.Errorf("recent = %+v", stats.Recent)
	}
}

func TestStatsRequiresOperator(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, op := range []*entity.Operator{nil, {Id: "x", Role: "guest"}, {Role: entity.RoleAdmin}} {
		if _, err := f.svc.Stats(ctx, op, "main"); !errors.Is(err, entity.ErrForbidden) {
			t.Errorf("Stats(%+v) err = %v, want ErrForbidden", op, err)
		}
	}
}
