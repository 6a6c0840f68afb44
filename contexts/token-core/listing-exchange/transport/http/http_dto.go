package httptransport

type CreateListingRequest struct {
	Quantity     uint64 `json:"quantity"`
	PricePerUnit uint64 `json:"price_per_unit"`
	MetaHash     string `json:"meta_hash"`
}

type BuyRequest struct {
	Quantity uint64 `json:"quantity"`
}

type RoleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

type AckResponse struct {
	Status string `json:"status"`
}

type ListingResponse struct {
	ListingID    uint64 `json:"listing_id"`
	Seller       string `json:"seller"`
	Quantity     uint64 `json:"quantity"`
	PricePerUnit uint64 `json:"price_per_unit"`
	MetaHash     string `json:"meta_hash"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type ListingCountResponse struct {
	ListingCount uint64 `json:"listing_count"`
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
