package transport

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

type CreateSweetRequest struct {
	Name     string  `json:"name"     validate:"required,min=1,max=100"`
	Category string  `json:"category" validate:"required,min=1,max=50"`
	Price    float64 `json:"price"    validate:"required,gt=0"`
	Quantity int     `json:"quantity" validate:"gte=0"`
}

type UpdateSweetRequest struct {
	Category *string  `json:"category" validate:"omitempty,min=1,max=50"`
	Price    *float64 `json:"price"    validate:"omitempty,gt=0"`
	Quantity *int     `json:"quantity" validate:"omitempty,gte=0"`
}
