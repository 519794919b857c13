package dto

// LoginRequest 登入請求，帳號以 email 識別
// swagger:model dto.LoginRequest
type LoginRequest struct {
	Email    string `json:"email" validate:"required" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"Secret123!"`
}
