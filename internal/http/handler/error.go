package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wara/internal/http/middleware"
	"wara/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// serviceError maps service sentinel errors to HTTP responses. Anything
// unmapped becomes a 500 without leaking the underlying error.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrComparisonNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "comparison not found")
	case errors.Is(err, service.ErrReportNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "report not found")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrInvalidFileType):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_TYPE", "only .docx files are supported")
	case errors.Is(err, service.ErrFilenameTooLong):
		return writeError(c, fiber.StatusBadRequest, "FILENAME_TOO_LONG", "filename is too long")
	case errors.Is(err, service.ErrFileTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the maximum allowed size")
	case errors.Is(err, service.ErrSameDocument):
		return writeError(c, fiber.StatusBadRequest, "SAME_DOCUMENT", "base and compared documents must differ")
	case errors.Is(err, service.ErrInvalidAnalysisType):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ANALYSIS_TYPE", "unknown analysis type")
	case errors.Is(err, service.ErrInvalidReportFormat):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", "unsupported report format")
	case errors.Is(err, service.ErrNotProcessed), errors.Is(err, service.ErrDocumentNotProcessed):
		return writeError(c, fiber.StatusConflict, "NOT_PROCESSED", "document has not been processed yet")
	case errors.Is(err, service.ErrComparisonNotCompleted):
		return writeError(c, fiber.StatusConflict, "NOT_COMPLETED", "comparison has not completed yet")
	case errors.Is(err, service.ErrReportNotReady):
		return writeError(c, fiber.StatusConflict, "NOT_READY", "report has not been generated yet")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
