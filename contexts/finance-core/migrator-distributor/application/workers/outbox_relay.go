package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("hmn outbox list failed",
			"event", "hmn_outbox_list_failed",
			"module", "finance-core/migrator-distributor",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			logger.Error("hmn outbox decode failed",
				"event", "hmn_outbox_decode_failed",
				"module", "finance-core/migrator-distributor",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Publisher.Publish(ctx, envelope); err != nil {
			logger.Error("hmn outbox publish failed",
				"event", "hmn_outbox_publish_failed",
				"module", "finance-core/migrator-distributor",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", row.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}
	if len(pending) > 0 {
		logger.Debug("hmn outbox relayed",
			"event", "hmn_outbox_relayed",
			"module", "finance-core/migrator-distributor",
			"layer", "worker",
			"count", len(pending),
		)
	}
	return nil
}
