package ports

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	contractsv1 "humanity/contracts/gen/events/v1"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for outbox rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// StateRepository persists the single distributor state row.
type StateRepository interface {
	LoadState(ctx context.Context) (entities.State, error)
	SaveState(ctx context.Context, state entities.State) error
}

// Ledger is the slice of a token ledger the distributor consumes: balance
// queries, transfers out of its own custody and allowance-based pulls.
type Ledger interface {
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	Transfer(ctx context.Context, from common.Address, to common.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, spender common.Address, from common.Address, to common.Address, amount *uint256.Int) error
}

// LedgerDirectory resolves a token address to its ledger. Unknown tokens
// resolve to an empty ledger rather than an error.
type LedgerDirectory interface {
	Ledger(token common.Address) Ledger
}

// Transactor runs fn as one all-or-nothing unit of work spanning the state
// store, the outbox and every ledger.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// OutboxWriter appends an event in the caller's unit of work.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxMessage represents a pending relay message.
type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository supports worker relay polling and acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, envelope EventEnvelope) error
}

// Metrics receives committed outcomes of distributor operations.
type Metrics interface {
	ObserveDistribution(distribution entities.Distribution)
	ObserveMigration(migration entities.Migration)
	SetReserveBalance(balance *uint256.Int)
}
