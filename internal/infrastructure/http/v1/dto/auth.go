package dto

// VerifyRequest submits the shared terminal secret.
type VerifyRequest struct {
	Secret string `json:"secret" binding:"required"`
}
