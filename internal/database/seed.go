package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/ticket"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

type SeedEvent struct {
	Id        string     `yaml:"id"`
	Title     string     `yaml:"title"`
	StartTime *time.Time `yaml:"start_time"`
}

type SeedHolder struct {
	Id      string `yaml:"id"`
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Country string `yaml:"country"`
}

type SeedRegistration struct {
	Id         string `yaml:"id"`
	EventId    string `yaml:"event_id"`
	HolderId   string `yaml:"holder_id"`
	TicketCode string `yaml:"ticket_code"`
}

// Seed is the fixture format every store can import.
type Seed struct {
	Events        []SeedEvent        `yaml:"events"`
	Holders       []SeedHolder       `yaml:"holders"`
	Registrations []SeedRegistration `yaml:"registrations"`
}

// Importer is implemented by all registration stores.
type Importer interface {
	Import(ctx context.Context, seed *Seed) error
}

func DecodeSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// registrations returns the seed rows as stored registrations: codes
// normalized, ids filled in, not checked in.
func (s *Seed) registrations() ([]entity.Registration, error) {
	regs := make([]entity.Registration, 0, len(s.Registrations))
	for _, r := range s.Registrations {
		code, err := ticket.Normalize(r.TicketCode)
		if err != nil {
			return nil, fmt.Errorf("seed registration %q: %w", r.TicketCode, err)
		}
		id := r.Id
		if id == "" {
			id = uuid.NewString()
		}
		regs = append(regs, entity.Registration{
			Id:         id,
			EventId:    r.EventId,
			HolderId:   r.HolderId,
			TicketCode: code,
			Status:     entity.StatusRegistered,
		})
	}
	return regs, nil
}

func (m *Memory) Import(_ context.Context, seed *Seed) error {
	for _, e := range seed.Events {
		m.AddEvent(entity.Event{Id: e.Id, Title: e.Title, StartTime: e.StartTime})
	}
	for _, h := range seed.Holders {
		m.AddHolder(entity.Holder{Id: h.Id, Name: h.Name, Email: h.Email, Country: h.Country})
	}
	regs, err := seed.registrations()
	if err != nil {
		return err
	}
	for _, reg := range regs {
		if _, err = m.AddRegistration(reg); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

func (s *MySql) Import(ctx context.Context, seed *Seed) error {
	regs, err := seed.registrations()
	if err != nil {
		return err
	}
	for _, e := range seed.Events {
		var start any
		if e.StartTime != nil {
			start = e.StartTime.UTC()
		}
		_, err = s.db.ExecContext(ctx, fmt.Sprintf(
			`INSERT INTO %sevents (id, title, start_time) VALUES (?, ?, ?)
			 ON DUPLICATE KEY UPDATE title = VALUES(title), start_time = VALUES(start_time)`, s.prefix),
			e.Id, e.Title, start)
		if err != nil {
			return fmt.Errorf("seed event %s: %w", e.Id, err)
		}
	}
	for _, h := range seed.Holders {
		_, err = s.db.ExecContext(ctx, fmt.Sprintf(
			`INSERT INTO %sholders (id, name, email, country) VALUES (?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE name = VALUES(name), email = VALUES(email), country = VALUES(country)`, s.prefix),
			h.Id, h.Name, h.Email, h.Country)
		if err != nil {
			return fmt.Errorf("seed holder %s: %w", h.Id, err)
		}
	}
	for _, r := range regs {
		// existing registrations keep their check-in state
		_, err = s.db.ExecContext(ctx, fmt.Sprintf(
			`INSERT IGNORE INTO %sregistrations (id, event_id, holder_id, ticket_code, status) VALUES (?, ?, ?, ?, ?)`, s.prefix),
			r.Id, r.EventId, r.HolderId, r.TicketCode, string(r.Status))
		if err != nil {
			return fmt.Errorf("seed registration %s: %w", r.Id, err)
		}
	}
	return nil
}

func (p *Postgres) Import(ctx context.Context, seed *Seed) error {
	regs, err := seed.registrations()
	if err != nil {
		return err
	}
	for _, e := range seed.Events {
		_, err = p.pool.Exec(ctx,
			`INSERT INTO events (id, title, start_time) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, start_time = EXCLUDED.start_time`,
			e.Id, e.Title, e.StartTime)
		if err != nil {
			return fmt.Errorf("seed event %s: %w", e.Id, err)
		}
	}
	for _, h := range seed.Holders {
		_, err = p.pool.Exec(ctx,
			`INSERT INTO holders (id, name, email, country) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, country = EXCLUDED.country`,
			h.Id, h.Name, h.Email, h.Country)
		if err != nil {
			return fmt.Errorf("seed holder %s: %w", h.Id, err)
		}
	}
	for _, r := range regs {
		_, err = p.pool.Exec(ctx,
			`INSERT INTO registrations (id, event_id, holder_id, ticket_code, status) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT DO NOTHING`,
			r.Id, r.EventId, r.HolderId, r.TicketCode, string(r.Status))
		if err != nil {
			return fmt.Errorf("seed registration %s: %w", r.Id, err)
		}
	}
	return nil
}

func (m *MongoDB) Import(ctx context.Context, seed *Seed) error {
	regs, err := seed.registrations()
	if err != nil {
		return err
	}
	upsert := options.Update().SetUpsert(true)
	for _, e := range seed.Events {
		event := entity.Event{Id: e.Id, Title: e.Title, StartTime: e.StartTime}
		_, err = m.collection(collectionEvents).UpdateOne(ctx, bson.D{{"id", e.Id}}, bson.D{{"$set", event}}, upsert)
		if err != nil {
			return fmt.Errorf("seed event %s: %w", e.Id, err)
		}
	}
	for _, h := range seed.Holders {
		holder := entity.Holder{Id: h.Id, Name: h.Name, Email: h.Email, Country: h.Country}
		_, err = m.collection(collectionHolders).UpdateOne(ctx, bson.D{{"id", h.Id}}, bson.D{{"$set", holder}}, upsert)
		if err != nil {
			return fmt.Errorf("seed holder %s: %w", h.Id, err)
		}
	}
	for _, r := range regs {
		_, err = m.collection(collectionRegistrations).UpdateOne(ctx,
			bson.D{{"event_id", r.EventId}, {"ticket_code", r.TicketCode}},
			bson.D{{"$setOnInsert", r}},
			upsert)
		if err != nil {
			return fmt.Errorf("seed registration %s: %w", r.Id, err)
		}
	}
	return nil
}
