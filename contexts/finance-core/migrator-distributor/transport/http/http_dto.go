package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ConfigureTaxRequest struct {
	SwapTriggerBp uint64 `json:"swap_trigger_bp"`
	PurchaseTaxBp uint64 `json:"purchase_tax_bp"`
	SalesTaxBp    uint64 `json:"sales_tax_bp"`
}

type ConfigureAddressesRequest struct {
	SwapTrigger string `json:"swap_trigger"`
	PurchaseTax string `json:"purchase_tax"`
	SalesTax    string `json:"sales_tax"`
}

type SetTokenPairRequest struct {
	NewToken string `json:"new_token"`
	OldToken string `json:"old_token"`
}

// AmountRequest carries a base-10 amount in token base units.
type AmountRequest struct {
	Amount string `json:"amount"`
}

type DistributeFeesRequest struct {
	Tokens []string `json:"tokens"`
}

type StateDTO struct {
	Distributor    string `json:"distributor"`
	Owner          string `json:"owner"`
	SwapTriggerBp  uint64 `json:"swap_trigger_bp"`
	PurchaseTaxBp  uint64 `json:"purchase_tax_bp"`
	SalesTaxBp     uint64 `json:"sales_tax_bp"`
	SwapTrigger    string `json:"swap_trigger"`
	PurchaseTax    string `json:"purchase_tax"`
	SalesTax       string `json:"sales_tax"`
	NewToken       string `json:"new_token"`
	OldToken       string `json:"old_token"`
	ReserveBalance string `json:"reserve_balance"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

type StateResponse struct {
	Status string   `json:"status"`
	Data   StateDTO `json:"data"`
}

type DistributionDTO struct {
	Token            string `json:"token"`
	Balance          string `json:"balance"`
	Distributable    string `json:"distributable"`
	SwapTriggerShare string `json:"swap_trigger_share"`
	PurchaseTaxShare string `json:"purchase_tax_share"`
	SalesTaxShare    string `json:"sales_tax_share"`
}

type DistributeFeesResponse struct {
	Status string            `json:"status"`
	Data   []DistributionDTO `json:"data"`
}

type MigrationDTO struct {
	Holder         string `json:"holder"`
	Amount         string `json:"amount"`
	Payout         string `json:"payout"`
	ReserveBalance string `json:"reserve_balance"`
}

type MigrateResponse struct {
	Status string       `json:"status"`
	Data   MigrationDTO `json:"data"`
}
