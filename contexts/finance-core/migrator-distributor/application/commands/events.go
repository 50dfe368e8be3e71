package commands

import (
	"context"
	"encoding/json"
	"time"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

const (
	EventConfigUpdated      = "hmn.config.updated"
	EventReserveFunded      = "hmn.reserve.funded"
	EventFeesDistributed    = "hmn.fees.distributed"
	EventMigrationCompleted = "hmn.migration.completed"

	eventSourceService = "migrator-distributor"
	eventSchemaVersion = 1
)

type configUpdatedPayload struct {
	Distributor   string `json:"distributor"`
	Change        string `json:"change"`
	SwapTriggerBp uint64 `json:"swap_trigger_bp"`
	PurchaseTaxBp uint64 `json:"purchase_tax_bp"`
	SalesTaxBp    uint64 `json:"sales_tax_bp"`
	SwapTrigger   string `json:"swap_trigger"`
	PurchaseTax   string `json:"purchase_tax"`
	SalesTax      string `json:"sales_tax"`
	NewToken      string `json:"new_token"`
	OldToken      string `json:"old_token"`
}

type reserveFundedPayload struct {
	Distributor    string `json:"distributor"`
	Funder         string `json:"funder"`
	Amount         string `json:"amount"`
	ReserveBalance string `json:"reserve_balance"`
}

type distributionPayload struct {
	Token            string `json:"token"`
	Balance          string `json:"balance"`
	Distributable    string `json:"distributable"`
	SwapTriggerShare string `json:"swap_trigger_share"`
	PurchaseTaxShare string `json:"purchase_tax_share"`
	SalesTaxShare    string `json:"sales_tax_share"`
}

type feesDistributedPayload struct {
	Distributor   string                `json:"distributor"`
	Caller        string                `json:"caller"`
	Distributions []distributionPayload `json:"distributions"`
}

type migrationCompletedPayload struct {
	Distributor    string `json:"distributor"`
	Holder         string `json:"holder"`
	Amount         string `json:"amount"`
	Payout         string `json:"payout"`
	ReserveBalance string `json:"reserve_balance"`
}

func configPayload(state entities.State, change string) configUpdatedPayload {
	return configUpdatedPayload{
		Distributor:   state.Distributor.Hex(),
		Change:        change,
		SwapTriggerBp: state.Tax.SwapTriggerBp,
		PurchaseTaxBp: state.Tax.PurchaseTaxBp,
		SalesTaxBp:    state.Tax.SalesTaxBp,
		SwapTrigger:   state.Beneficiaries.SwapTrigger.Hex(),
		PurchaseTax:   state.Beneficiaries.PurchaseTax.Hex(),
		SalesTax:      state.Beneficiaries.SalesTax.Hex(),
		NewToken:      state.Pair.NewToken.Hex(),
		OldToken:      state.Pair.OldToken.Hex(),
	}
}

func toDistributionPayloads(items []entities.Distribution) []distributionPayload {
	out := make([]distributionPayload, 0, len(items))
	for _, item := range items {
		out = append(out, distributionPayload{
			Token:            item.Token.Hex(),
			Balance:          item.Balance.Dec(),
			Distributable:    item.Distributable.Dec(),
			SwapTriggerShare: item.SwapTriggerShare.Dec(),
			PurchaseTaxShare: item.PurchaseTaxShare.Dec(),
			SalesTaxShare:    item.SalesTaxShare.Dec(),
		})
	}
	return out
}

// appendEvent writes an envelope to the outbox inside the current unit of
// work. It is a no-op when no outbox is wired.
func appendEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	now time.Time,
	eventType string,
	partitionKey string,
	data any,
) error {
	if outbox == nil || idGen == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       now,
		SourceService:    eventSourceService,
		SchemaVersion:    eventSchemaVersion,
		PartitionKeyPath: "distributor",
		PartitionKey:     partitionKey,
		Data:             payload,
	})
}
