package httptransport

type IssueRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type RetireRequest struct {
	From   string `json:"from"`
	Amount uint64 `json:"amount"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type ApproveRequest struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

type RoleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

type AckResponse struct {
	Status string `json:"status"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type AllowanceResponse struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance uint64 `json:"allowance"`
}

type SupplyResponse struct {
	TotalSupply uint64 `json:"total_supply"`
	Cap         uint64 `json:"cap"`
}

type TokenInfoResponse struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type HasRoleResponse struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	Granted bool   `json:"granted"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
