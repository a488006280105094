package api

const (
	maxBodySize = 64 * 1024 // 64 KiB

	headerIdempotencyKey = "Idempotency-Key"
	tokenTypeBearer      = "bearer"
)

// POST /users/login response body
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// error response body
type errorResponse struct {
	Detail string `json:"detail"`
}
