package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	generationdomain "github.com/meddor/scribe/internal/generation/domain"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	promptdomain "github.com/meddor/scribe/internal/prompt/domain"
	llmdomain "github.com/meddor/scribe/internal/providers/llm/domain"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, creditdomain.ErrInsufficientCredit),
		errors.Is(err, generationdomain.ErrCreditExhausted):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "credit_exhausted",
			Message: "credit balance is exhausted",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, generationdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, paymentdomain.ErrEventAlreadyProcessed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, generationdomain.ErrGenerationFailed),
		errors.Is(err, llmdomain.ErrOverloaded):
		return http.StatusBadGateway, errorPayload{
			Type:    "generation_failed",
			Message: "upstream model request failed",
		}
	case errors.Is(err, creditdomain.ErrStoreUnavailable),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, creditdomain.ErrInvalidEmail),
		errors.Is(err, creditdomain.ErrInvalidAmount),
		errors.Is(err, generationdomain.ErrInvalidInput),
		errors.Is(err, generationdomain.ErrModelNotSupported),
		errors.Is(err, promptdomain.ErrInvalidEmail),
		errors.Is(err, promptdomain.ErrInvalidBody),
		errors.Is(err, usagedomain.ErrInvalidAccount),
		errors.Is(err, usagedomain.ErrInvalidModel),
		errors.Is(err, usagedomain.ErrInvalidTokens),
		errors.Is(err, paymentdomain.ErrInvalidProvider),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidEvent),
		errors.Is(err, paymentdomain.ErrMissingAccountEmail):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, creditdomain.ErrAccountNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "missing_") {
		return strings.TrimPrefix(code, "missing_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
