package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ideaforge/domain/events"
	pkgerrors "ideaforge/pkg/errors"
)

// EventStore appends domain events to a per-aggregate log. Events are
// stored as JSON payloads keyed by type; unknown types hydrate as bare
// base events so old logs stay readable across releases.
type EventStore struct {
	db Executor
}

// NewEventStore creates an event store on the given executor
func NewEventStore(db Executor) *EventStore {
	return &EventStore{db: db}
}

// SaveEvents persists domain events in the order given
func (s *EventStore) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		payload, err := json.Marshal(event)
		if err != nil {
			return pkgerrors.NewDatabaseError("marshal event", err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO events (aggregate_id, event_type, version, payload, occurred_at)
			 VALUES (?, ?, ?, ?, ?)`,
			event.GetAggregateID(),
			event.GetEventType(),
			event.GetVersion(),
			string(payload),
			event.GetTimestamp(),
		)
		if err != nil {
			return pkgerrors.NewDatabaseError("insert event", err)
		}
	}
	return nil
}

// GetEvents retrieves events for an aggregate in insertion order
func (s *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type, version, payload, occurred_at
		 FROM events WHERE aggregate_id = ? ORDER BY id`, aggregateID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load events", err)
	}
	defer rows.Close()

	var out []events.DomainEvent
	for rows.Next() {
		var (
			eventType  string
			version    int
			payload    string
			occurredAt time.Time
		)
		if err := rows.Scan(&eventType, &version, &payload, &occurredAt); err != nil {
			return nil, pkgerrors.NewDatabaseError("scan event", err)
		}

		event, err := decodeEvent(eventType, aggregateID, version, occurredAt, []byte(payload))
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("decode event", err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("load events", err)
	}
	return out, nil
}

// DeleteEvents removes all events for an aggregate
func (s *EventStore) DeleteEvents(ctx context.Context, aggregateID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE aggregate_id = ?`, aggregateID)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete events", err)
	}
	return nil
}

// decodeEvent rebuilds the concrete event type from its stored payload
func decodeEvent(eventType, aggregateID string, version int, occurredAt time.Time, payload []byte) (events.DomainEvent, error) {
	base := events.BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   occurredAt,
		Version:     version,
	}

	unmarshal := func(target interface{}) error {
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("payload for %s: %w", eventType, err)
		}
		return nil
	}

	switch eventType {
	case events.TypeSessionStarted:
		var ev events.SessionStarted
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	case events.TypeSessionCompleted:
		var ev events.SessionCompleted
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	case events.TypeQuestionAsked:
		var ev events.QuestionAsked
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	case events.TypeAnswerRecorded:
		var ev events.AnswerRecorded
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	case events.TypeCategoryAdvanced:
		var ev events.CategoryAdvanced
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	case events.TypeQuestionSkipped:
		var ev events.QuestionSkipped
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	case events.TypeAnswerEdited:
		var ev events.AnswerEdited
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	case events.TypeSnapshotCreated:
		var ev events.SnapshotCreated
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.BaseEvent = base
		return ev, nil
	default:
		return base, nil
	}
}
