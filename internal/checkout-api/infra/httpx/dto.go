package httpx

// CheckoutRequest is the body of POST /checkout. Amounts are integer minor
// units.
type CheckoutRequest struct {
	Items []CheckoutItemDTO `json:"items"`
	Mode  string            `json:"mode"`
}

type CheckoutItemDTO struct {
	Price    PriceDTO `json:"price"`
	Quantity int64    `json:"quantity"`
}

type PriceDTO struct {
	Currency            string         `json:"currency"`
	ProductInfo         ProductInfoDTO `json:"productInfo"`
	UnitPriceMinorUnits int64          `json:"unitPriceMinorUnits"`
}

type ProductInfoDTO struct {
	Name string `json:"name"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type AttemptResponse struct {
	AttemptID   string `json:"attempt_id"`
	Status      string `json:"status"`
	CurrentStep string `json:"current_step,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
