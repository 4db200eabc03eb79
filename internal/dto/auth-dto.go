package dto

type LoginDTO struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required"`
	BankAccessKey *string `json:"bank_access_key,omitempty"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponseDTO struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
	User         UserResponseDTO `json:"user"`
}

type PushTokenDTO struct {
	OneSignalPlayerID string `json:"onesignal_player_id" validate:"required,max=255"`
}
