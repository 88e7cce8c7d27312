// Package checkin admits ticket holders at the door.
//
// Resolve and the admission policy give the operator fast feedback, but they
// are advisory: the only thing that makes a check-in happen exactly once is the
// store's conditional write in MarkAttended, which every commit goes through.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/admission"
	"doorcheck/internal/ledger"
	"doorcheck/internal/ticket"
	"doorcheck/lib/sl"
)

const DefaultTimeout = 5 * time.Second

// Store is the shared registration store. Implementations must not cache
// check-in state between calls.
type Store interface {
	// FindByCode returns entity.ErrNotFound when no registration of the event
	// carries the code.
	FindByCode(ctx context.Context, eventId, code string) (*entity.RegistrationView, error)
	// MarkAttended sets status, checked_in_at and checked_in_by in one write
	// conditioned on checked_in_at being null. Missing and already checked-in
	// registrations are reported through the outcome, not as errors.
	MarkAttended(ctx context.Context, registrationId, operatorId string, at time.Time) (*entity.CommitResult, error)
	// EventRegistrations lists every registration of the event with its holder.
	EventRegistrations(ctx context.Context, eventId string) ([]*entity.RegistrationView, error)
}

type Options struct {
	Timeout     time.Duration
	Location    *time.Location
	RecentLimit int
	Clock       func() time.Time
}

type Service struct {
	store       Store
	timeout     time.Duration
	loc         *time.Location
	recentLimit int
	now         func() time.Time
	log         *slog.Logger
}

func New(store Store, log *slog.Logger, opts Options) *Service {
	if store == nil {
		panic("checkin: store is nil")
	}
	s := &Service{
		store:       store,
		timeout:     opts.Timeout,
		loc:         opts.Location,
		recentLimit: opts.RecentLimit,
		now:         opts.Clock,
		log:         log.With(sl.Module("checkin")),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Resolve looks a raw code up within the event and evaluates the admission
// window. It never writes.
func (s *Service) Resolve(ctx context.Context, op *entity.Operator, eventId, raw string) (*entity.Resolution, error) {
	if err := authorize(op); err != nil {
		return nil, err
	}
	code, err := ticket.Normalize(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	view, err := s.store.FindByCode(ctx, eventId, code)
	if err != nil {
		return nil, s.storeError("find by code", err)
	}
	return &entity.Resolution{
		Registration:     view,
		Admission:        admission.Check(view.Event.StartTime, s.now()),
		AlreadyCheckedIn: view.IsCheckedIn(),
	}, nil
}

// Commit performs the Registered -> Attended transition. Once issued it runs
// to completion or to its own timeout; cancelling ctx does not abort it.
// A retry after an unknown result is safe and resolves to already_checked_in
// if the first attempt landed.
func (s *Service) Commit(ctx context.Context, op *entity.Operator, registrationId string) (*entity.CommitResult, error) {
	if err := authorize(op); err != nil {
		return nil, err
	}
	log := s.log.With(
		sl.Registration(registrationId),
		sl.Operator(op),
	)
	if registrationId == "" {
		return &entity.CommitResult{Outcome: entity.OutcomeNotFound}, nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	result, err := s.store.MarkAttended(ctx, registrationId, op.Id, s.now())
	if err != nil {
		err = s.storeError("mark attended", err)
		if errors.Is(err, entity.ErrTransientIO) {
			log.Warn("commit not confirmed", sl.Err(err))
		} else {
			log.Error("commit failed", sl.Err(err))
		}
		return nil, err
	}

	switch result.Outcome {
	case entity.OutcomeCommitted:
		log.Info("checked in")
	case entity.OutcomeAlreadyCheckedIn:
		log.With(
			slog.Any("checked_in_at", result.CheckedInAt),
			slog.String("checked_in_by", result.CheckedInBy),
		).Info("already checked in")
	case entity.OutcomeNotFound:
		log.Info("registration not found")
	}
	return result, nil
}

// Admit runs normalize, resolve, policy and commit for entry devices that
// confirm automatically. The commit is attempted even when the resolved row
// already looked checked in, so the store has the final word.
func (s *Service) Admit(ctx context.Context, op *entity.Operator, eventId, raw string) (*entity.AdmitResult, error) {
	resolution, err := s.Resolve(ctx, op, eventId, raw)
	if err != nil {
		return nil, err
	}
	result := &entity.AdmitResult{Resolution: resolution}
	if err = admission.Err(resolution.Admission); err != nil {
		s.log.With(
			sl.Event(eventId),
			sl.Ticket(resolution.Registration.TicketCode),
			sl.Operator(op),
		).Info("admission window not open")
		return result, err
	}

	commit, err := s.Commit(ctx, op, resolution.Registration.Id)
	if err != nil {
		return result, err
	}
	result.Commit = commit
	if commit.Outcome == entity.OutcomeNotFound {
		return result, entity.ErrNotFound
	}
	return result, nil
}

// Stats recomputes the event's check-in figures from the store.
func (s *Service) Stats(ctx context.Context, op *entity.Operator, eventId string) (*entity.Stats, error) {
	if err := authorize(op); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	views, err := s.store.EventRegistrations(ctx, eventId)
	if err != nil {
		return nil, s.storeError("event registrations", err)
	}
	return ledger.Build(eventId, views, s.now(), s.loc, s.recentLimit), nil
}

func authorize(op *entity.Operator) error {
	if op == nil || op.Id == "" || !op.CanCheckIn() {
		return entity.ErrForbidden
	}
	return nil
}

// storeError makes sure deadline hits surface as ErrTransientIO even when the
// store did not classify them.
func (s *Service) storeError(op string, err error) error {
	if errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrTransientIO) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrTransientIO, err)
	}
	return err
}
