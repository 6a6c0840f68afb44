package httptransport

type ConfirmDropRequest struct {
	User         string `json:"user"`
	Amount       uint64 `json:"amount"`
	Collector    string `json:"collector"`
	MetadataHash string `json:"metadata_hash"`
}

type TransitionRequest struct {
	Reason string `json:"reason"`
}

type RoleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

type AckResponse struct {
	Status string `json:"status"`
}

type DropResponse struct {
	DropID       uint64 `json:"drop_id"`
	User         string `json:"user"`
	Amount       uint64 `json:"amount"`
	Collector    string `json:"collector"`
	MetadataHash string `json:"metadata_hash"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	RecordedAt   string `json:"recorded_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type DropCountResponse struct {
	DropCount uint64 `json:"drop_count"`
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
