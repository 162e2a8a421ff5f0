package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
}

func conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, ErrorResponse{Error: message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: message})
}

func serviceUnavailable(c echo.Context, message string) error {
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: message})
}

func badGateway(c echo.Context, message, detail string) error {
	return c.JSON(http.StatusBadGateway, ErrorResponse{Error: message, Detail: detail})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// bindRequest читает тело запроса в req и проверяет его теги validate.
// Возвращаемая ошибка уже пригодна для ответа клиенту.
func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return requestError{msg: "invalid payload"}
	}
	if err := c.Validate(req); err != nil {
		return requestError{msg: validationMessage(err)}
	}
	return nil
}

type requestError struct {
	msg string
}

func (e requestError) Error() string {
	return e.msg
}

// validationMessage превращает ошибки валидатора в короткое сообщение для клиента.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s is %s", field, fe.Tag()))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}
