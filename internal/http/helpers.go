package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/database"
	"github.com/onmir/booktracker/internal/domain"
	"github.com/onmir/booktracker/internal/googlebooks"
)

// StatusClientClosedRequest is answered when the caller went away or the
// catalog request was cancelled. Nothing is logged for it.
const StatusClientClosedRequest = 499

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondInternalError logs the error and sends a 500 without exposing it.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// respondDomainError maps interactor and catalog errors to a response.
func respondDomainError(c *gin.Context, err error, context string) {
	var validationErr *domain.ValidationError
	var statusErr *googlebooks.UnexpectedResponseError
	var notFound *database.NotFoundError

	switch {
	case isCancellation(err):
		c.AbortWithStatus(StatusClientClosedRequest)
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request",
			Code:    "validation_failed",
			Details: validationErr.Fields,
		})
	case errors.As(err, &notFound):
		respondNotFound(c, notFound.Entity)
	case errors.Is(err, googlebooks.ErrInvalidRequest):
		respondBadRequest(c, err.Error())
	case errors.As(err, &statusErr):
		log.Printf("Catalog error (%s): %v", context, err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "book catalog unavailable", Code: "catalog_status"})
	case isCatalogFailure(err):
		log.Printf("Catalog error (%s): %v", context, err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "book catalog unavailable", Code: "catalog_failure"})
	default:
		respondInternalError(c, err, context)
	}
}

func isCancellation(err error) bool {
	return googlebooks.IsCancelled(err) || errors.Is(err, context.Canceled)
}

func isCatalogFailure(err error) bool {
	var decodeErr *googlebooks.DecodingError
	var transportErr *googlebooks.UnderlyingError
	return errors.As(err, &decodeErr) || errors.As(err, &transportErr)
}

// parseIDParam extracts an unsigned integer ID from URL parameters.
// It responds with a 400 error and returns 0, false when invalid.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseIntQuery reads a non-negative integer query parameter with a default.
func parseIntQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}
