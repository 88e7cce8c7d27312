package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionEvents        = "events"
	collectionHolders       = "holders"
	collectionRegistrations = "registrations"
	collectionOperators     = "operators"
)

// MongoDB stores registrations and operators; the client is shared by all calls.
type MongoDB struct {
	client   *mongo.Client
	database string
}

func NewMongoClient(ctx context.Context, conf *config.Config) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return openMongo(ctx, clientOptions, conf.Mongo.Database)
}

// OpenMongo connects with a full connection URI.
func OpenMongo(ctx context.Context, uri, database string) (*MongoDB, error) {
	return openMongo(ctx, options.Client().ApplyURI(uri), database)
}

func openMongo(ctx context.Context, clientOptions *options.ClientOptions, database string) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	m := &MongoDB{
		client:   client,
		database: database,
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) {
	_ = m.client.Disconnect(ctx)
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		collectionRegistrations: {
			Keys:    bson.D{{"event_id", 1}, {"ticket_code", 1}},
			Options: options.Index().SetUnique(true),
		},
		collectionEvents: {
			Keys:    bson.D{{"id", 1}},
			Options: options.Index().SetUnique(true),
		},
		collectionHolders: {
			Keys:    bson.D{{"id", 1}},
			Options: options.Index().SetUnique(true),
		},
		collectionOperators: {
			Keys:    bson.D{{"token", 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	for name, model := range indexes {
		if _, err := m.collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongodb index %s: %w", name, err)
		}
	}
	// registrations are addressed by id on commit
	_, err := m.collection(collectionRegistrations).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{"id", 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongodb index registrations id: %w", err)
	}
	return nil
}

func (m *MongoDB) findError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.ErrNotFound
	}
	return classify(op, err)
}

func (m *MongoDB) FindByCode(ctx context.Context, eventId, code string) (*entity.RegistrationView, error) {
	var reg entity.Registration
	filter := bson.D{{"event_id", eventId}, {"ticket_code", code}}
	err := m.collection(collectionRegistrations).FindOne(ctx, filter).Decode(&reg)
	if err != nil {
		return nil, m.findError("mongodb find by code", err)
	}
	event, err := m.event(ctx, eventId)
	if err != nil {
		return nil, err
	}
	holder, err := m.holder(ctx, reg.HolderId)
	if err != nil {
		return nil, err
	}
	return m.view(&reg, event, holder), nil
}

func (m *MongoDB) MarkAttended(ctx context.Context, registrationId, operatorId string, at time.Time) (*entity.CommitResult, error) {
	// BSON dates keep milliseconds
	at = at.UTC().Truncate(time.Millisecond)
	filter := bson.D{{"id", registrationId}, {"checked_in_at", nil}}
	update := bson.D{{"$set", bson.D{
		{"status", entity.StatusAttended},
		{"checked_in_at", at},
		{"checked_in_by", operatorId},
	}}}
	res, err := m.collection(collectionRegistrations).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, classify("mongodb mark attended", err)
	}
	if res.MatchedCount == 1 {
		return committed(registrationId, operatorId, at), nil
	}

	var reg entity.Registration
	err = m.collection(collectionRegistrations).FindOne(ctx, bson.D{{"id", registrationId}}).Decode(&reg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &entity.CommitResult{Outcome: entity.OutcomeNotFound, RegistrationId: registrationId}, nil
		}
		return nil, classify("mongodb select check-in", err)
	}
	result := &entity.CommitResult{
		Outcome:        entity.OutcomeAlreadyCheckedIn,
		RegistrationId: registrationId,
		CheckedInBy:    reg.CheckedInBy,
	}
	if reg.CheckedInAt != nil {
		stamp := reg.CheckedInAt.UTC()
		result.CheckedInAt = &stamp
	}
	return result, nil
}

func (m *MongoDB) EventRegistrations(ctx context.Context, eventId string) ([]*entity.RegistrationView, error) {
	event, err := m.event(ctx, eventId)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{"ticket_code", 1}})
	cursor, err := m.collection(collectionRegistrations).Find(ctx, bson.D{{"event_id", eventId}}, opts)
	if err != nil {
		return nil, classify("mongodb event registrations", err)
	}
	defer cursor.Close(ctx)

	var regs []*entity.Registration
	if err = cursor.All(ctx, &regs); err != nil {
		return nil, classify("mongodb event registrations", err)
	}

	holders, err := m.holders(ctx, regs)
	if err != nil {
		return nil, err
	}
	views := make([]*entity.RegistrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, m.view(reg, event, holders[reg.HolderId]))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].TicketCode < views[j].TicketCode
	})
	return views, nil
}

// GetOperator looks up an operator by API token; nil when no operator has it.
func (m *MongoDB) GetOperator(ctx context.Context, token string) (*entity.Operator, error) {
	var operator entity.Operator
	err := m.collection(collectionOperators).FindOne(ctx, bson.D{{"token", token}}).Decode(&operator)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, classify("mongodb get operator", err)
	}
	return &operator, nil
}

// SaveOperator creates or replaces an operator keyed by id.
func (m *MongoDB) SaveOperator(ctx context.Context, operator *entity.Operator) error {
	filter := bson.D{{"id", operator.Id}}
	update := bson.D{{"$set", operator}}
	opts := options.Update().SetUpsert(true)
	_, err := m.collection(collectionOperators).UpdateOne(ctx, filter, update, opts)
	return classify("mongodb save operator", err)
}

func (m *MongoDB) event(ctx context.Context, id string) (*entity.Event, error) {
	var event entity.Event
	err := m.collection(collectionEvents).FindOne(ctx, bson.D{{"id", id}}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &entity.Event{Id: id}, nil
		}
		return nil, classify("mongodb find event", err)
	}
	return &event, nil
}

func (m *MongoDB) holder(ctx context.Context, id string) (*entity.Holder, error) {
	var holder entity.Holder
	err := m.collection(collectionHolders).FindOne(ctx, bson.D{{"id", id}}).Decode(&holder)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &entity.Holder{Id: id}, nil
		}
		return nil, classify("mongodb find holder", err)
	}
	return &holder, nil
}

func (m *MongoDB) holders(ctx context.Context, regs []*entity.Registration) (map[string]*entity.Holder, error) {
	ids := make([]string, 0, len(regs))
	for _, reg := range regs {
		ids = append(ids, reg.HolderId)
	}
	result := make(map[string]*entity.Holder, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	cursor, err := m.collection(collectionHolders).Find(ctx, bson.D{{"id", bson.D{{"$in", ids}}}})
	if err != nil {
		return nil, classify("mongodb find holders", err)
	}
	defer cursor.Close(ctx)

	var list []*entity.Holder
	if err = cursor.All(ctx, &list); err != nil {
		return nil, classify("mongodb find holders", err)
	}
	for _, h := range list {
		result[h.Id] = h
	}
	return result, nil
}

func (m *MongoDB) view(reg *entity.Registration, event *entity.Event, holder *entity.Holder) *entity.RegistrationView {
	if holder == nil {
		holder = &entity.Holder{Id: reg.HolderId}
	}
	r := *reg
	if r.CheckedInAt != nil {
		at := r.CheckedInAt.UTC()
		r.CheckedInAt = &at
	}
	return &entity.RegistrationView{
		Registration: r,
		Holder:       holder.View(),
		Event:        event.View(),
	}
}
