package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/ticket"

	"github.com/google/uuid"
)

// Memory is an in-process registration store for local runs and tests.
// MarkAttended is a compare-and-swap under the store mutex.
type Memory struct {
	mu            sync.Mutex
	events        map[string]entity.Event
	holders       map[string]entity.Holder
	registrations map[string]entity.Registration
	byCode        map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		events:        make(map[string]entity.Event),
		holders:       make(map[string]entity.Holder),
		registrations: make(map[string]entity.Registration),
		byCode:        make(map[string]string),
	}
}

func codeKey(eventId, code string) string {
	return eventId + "\x00" + code
}

func (m *Memory) AddEvent(event entity.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.Id] = event
}

func (m *Memory) AddHolder(holder entity.Holder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holders[holder.Id] = holder
}

// AddRegistration stores a registration as the registration flow would create
// it. The code is normalized and must be unique within the event.
func (m *Memory) AddRegistration(reg entity.Registration) (string, error) {
	code, err := ticket.Normalize(reg.TicketCode)
	if err != nil {
		return "", fmt.Errorf("registration %q: %w", reg.TicketCode, err)
	}
	reg.TicketCode = code
	if reg.Id == "" {
		reg.Id = uuid.NewString()
	}
	if reg.Status == "" {
		reg.Status = entity.StatusRegistered
	}
	if !reg.Consistent() {
		return "", fmt.Errorf("registration %s: inconsistent check-in state", reg.Id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := codeKey(reg.EventId, code)
	if _, ok := m.byCode[key]; ok {
		return "", fmt.Errorf("registration %s: duplicate ticket code %s in event %s", reg.Id, code, reg.EventId)
	}
	if _, ok := m.registrations[reg.Id]; ok {
		return "", fmt.Errorf("registration %s: duplicate id", reg.Id)
	}
	m.registrations[reg.Id] = reg
	m.byCode[key] = reg.Id
	return reg.Id, nil
}

func (m *Memory) FindByCode(ctx context.Context, eventId, code string) (*entity.RegistrationView, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("memory find by code", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[codeKey(eventId, code)]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return m.view(m.registrations[id]), nil
}

func (m *Memory) MarkAttended(ctx context.Context, registrationId, operatorId string, at time.Time) (*entity.CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("memory mark attended", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.registrations[registrationId]
	if !ok {
		return &entity.CommitResult{Outcome: entity.OutcomeNotFound, RegistrationId: registrationId}, nil
	}
	if reg.CheckedInAt != nil {
		stamp := *reg.CheckedInAt
		return &entity.CommitResult{
			Outcome:        entity.OutcomeAlreadyCheckedIn,
			RegistrationId: registrationId,
			CheckedInAt:    &stamp,
			CheckedInBy:    reg.CheckedInBy,
		}, nil
	}
	stamp := at
	reg.Status = entity.StatusAttended
	reg.CheckedInAt = &stamp
	reg.CheckedInBy = operatorId
	m.registrations[registrationId] = reg
	return &entity.CommitResult{
		Outcome:        entity.OutcomeCommitted,
		RegistrationId: registrationId,
		CheckedInAt:    &at,
		CheckedInBy:    operatorId,
	}, nil
}

func (m *Memory) EventRegistrations(ctx context.Context, eventId string) ([]*entity.RegistrationView, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("memory event registrations", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	views := make([]*entity.RegistrationView, 0)
	for _, reg := range m.registrations {
		if reg.EventId == eventId {
			views = append(views, m.view(reg))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].TicketCode < views[j].TicketCode
	})
	return views, nil
}

// Registration returns a copy of the stored row.
func (m *Memory) Registration(id string) (entity.Registration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.registrations[id]
	if ok && reg.CheckedInAt != nil {
		stamp := *reg.CheckedInAt
		reg.CheckedInAt = &stamp
	}
	return reg, ok
}

// view must be called with m.mu held
func (m *Memory) view(reg entity.Registration) *entity.RegistrationView {
	if reg.CheckedInAt != nil {
		stamp := *reg.CheckedInAt
		reg.CheckedInAt = &stamp
	}
	v := &entity.RegistrationView{Registration: reg}
	if holder, ok := m.holders[reg.HolderId]; ok {
		v.Holder = holder.View()
	} else {
		v.Holder = entity.HolderView{Id: reg.HolderId}
	}
	if event, ok := m.events[reg.EventId]; ok {
		v.Event = event.View()
	} else {
		v.Event = entity.EventView{Id: reg.EventId}
	}
	return v
}
