package server

import (
	"github.com/go-playground/validator/v10"

	"example.com/ai-finance-coach/backend/internal/validation"
)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator создает валидатор запросов, понимающий decimal-поля.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validation.New()}
}

// Validate запускает проверку структуры по тегам.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
