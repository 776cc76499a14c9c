package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6,max=72"`
	DisplayName string `validate:"required,min=1,max=50"`
}

func ValidateRegister(req RegisterRequest) error {
	return validate.Struct(req)
}
