package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

type Store struct {
	mu sync.RWMutex

	state  entities.State
	outbox map[string]outboxRecord
}

type snapshot struct {
	state  entities.State
	outbox map[string]outboxRecord
}

func NewStore(distributor common.Address, owner common.Address) *Store {
	return &Store{
		state:  entities.NewState(distributor, owner),
		outbox: make(map[string]outboxRecord),
	}
}

func (s *Store) LoadState(_ context.Context) (entities.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), nil
}

func (s *Store) SaveState(_ context.Context, state entities.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox[envelope.EventID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			CreatedAt: envelope.OccurredAt,
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.Status == outboxStatusPending {
			items = append(items, record.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.outbox[outboxID]
	if !ok {
		return nil
	}
	at := publishedAt.UTC()
	record.Status = outboxStatusPublished
	record.PublishedAt = &at
	s.outbox[outboxID] = record
	return nil
}

// PendingOutboxCount reports rows not yet relayed.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.outbox {
		if record.Status == outboxStatusPending {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := snapshot{
		state:  s.state.Clone(),
		outbox: make(map[string]outboxRecord, len(s.outbox)),
	}
	for id, record := range s.outbox {
		out.outbox[id] = record
	}
	return out
}

func (s *Store) Restore(value any) {
	snap, ok := value.(snapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = snap.state
	s.outbox = snap.outbox
}
