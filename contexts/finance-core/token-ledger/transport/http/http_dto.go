package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Amounts travel as base-10 strings of 18-decimal base units.

type TokenDTO struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	Owner       string `json:"owner"`
	Router      string `json:"router"`
	Paused      bool   `json:"paused"`
	TotalSupply string `json:"total_supply"`
	TransferCap string `json:"transfer_cap"`
}

type TokenResponse struct {
	Status string   `json:"status"`
	Data   TokenDTO `json:"data"`
}

type BalanceDTO struct {
	Token   string `json:"token"`
	Account string `json:"account"`
	Balance string `json:"balance"`
}

type BalanceResponse struct {
	Status string     `json:"status"`
	Data   BalanceDTO `json:"data"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type TransferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type ApproveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type SetRouterRequest struct {
	Router string `json:"router"`
}

type AckResponse struct {
	Status string `json:"status"`
}
