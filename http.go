package account

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-account/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Status  int               `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var ErrInvalidRequestBody = errors.New("invalid request body", errors.CategoryBadInput).
	WithTextCode("invalid_body").
	WithCode(errors.CodeBadRequest)

var ErrTooManyRequests = errors.New("too many requests", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyRequests).
	WithCode(http.StatusTooManyRequests)

// NewValidationError wraps ozzo validation errors with their field map
func NewValidationError(err error) error {
	fields := FormatValidationErrorToMap(err)
	return errors.New("validation failed", errors.CategoryBadInput).
		WithTextCode(TextCodeValidationFailed).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}

// NewErrorHandler renders rich errors as ErrorResponse. Errors that are not
// rich are reported as internal without exposing their message.
func NewErrorHandler(logger Logger) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(ctx router.Context, err error) error {
		status, resp := renderError(logger, ctx.Path(), err)
		return ctx.JSON(status, resp)
	}
}

// NewFiberErrorHandler renders the errors fiber handles itself, unknown
// routes and errors returned past the router, with the same ErrorResponse.
func NewFiberErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		status, resp := renderError(logger, c.Path(), err)
		return c.Status(status).JSON(resp)
	}
}

func renderError(logger Logger, path string, err error) (int, ErrorResponse) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse{
			Status:  fiberErr.Code,
			Code:    httpTextCode(fiberErr.Code),
			Message: fiberErr.Message,
		}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithTextCode(TextCodeInternal).
			WithCode(errors.CodeInternal)
	}

	status := statusForError(richErr)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"path", path,
			"error", err,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
	} else {
		logger.Debug("request rejected",
			"path", path,
			"text_code", richErr.TextCode,
			"category", richErr.Category,
		)
	}

	resp := ErrorResponse{
		Status:  status,
		Code:    richErr.TextCode,
		Message: richErr.Message,
	}
	if resp.Code == "" {
		resp.Code = httpTextCode(status)
	}
	if fields, ok := richErr.Metadata["fields"].(map[string]string); ok {
		resp.Fields = fields
	}

	return status, resp
}

func statusForError(richErr *errors.Error) int {
	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func httpTextCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusTooManyRequests:
		return TextCodeTooManyRequests
	default:
		return TextCodeInternal
	}
}

// ProtectedRoute returns middleware that requires a valid session token and
// stores its claims under contextKey and in the request context. Failures
// are rendered by errorHandler, NewErrorHandler when nil.
func ProtectedRoute(tokens *TokenService, contextKey string, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = NewErrorHandler(nil)
	}

	return jwtware.New(jwtware.Config{
		ContextKey: contextKey,
		TokenValidator: jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
			claims, err := tokens.Validate(raw)
			if err != nil {
				return nil, err
			}
			return claims, nil
		}),
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if session, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, session)
			}
			return ctx
		},
		ErrorHandler: func(ctx router.Context, err error) error {
			return errorHandler(ctx, sessionError(err))
		},
	})
}

// sessionError maps token failures to ErrTokenExpired or ErrTokenMalformed
func sessionError(err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return err
	}

	base := ErrTokenMalformed
	if IsTokenExpiredError(err) {
		base = ErrTokenExpired
	}

	return errors.Wrap(err, base.Category, base.Message).
		WithTextCode(base.TextCode).
		WithCode(base.Code)
}
