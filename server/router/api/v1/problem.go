package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/taskchat/taskchat/service"
)

// Problem type URIs, one per error class.
const (
	problemValidation  = "urn:taskchat:problem:validation"
	problemNotFound    = "urn:taskchat:problem:not-found"
	problemUnavailable = "urn:taskchat:problem:unavailable"
	problemTimeout     = "urn:taskchat:problem:timeout"
	problemRateLimited = "urn:taskchat:problem:rate-limited"
	problemInternal    = "urn:taskchat:problem:internal"
)

// problemDetail is an RFC 7807 problem document.
type problemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

func problem(c *echo.Context, status int, typeURI, title, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, &problemDetail{
		Type:     typeURI,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// serviceProblem maps a service-layer error to its problem response.
func serviceProblem(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return problem(c, http.StatusBadRequest, problemValidation, "Invalid request", err.Error())
	case errors.Is(err, service.ErrNotFound):
		return problem(c, http.StatusNotFound, problemNotFound, "Not found", err.Error())
	case errors.Is(err, service.ErrUnavailable):
		return problem(c, http.StatusServiceUnavailable, problemUnavailable, "Service unavailable", "the task service is temporarily unavailable, try again shortly")
	default:
		return problem(c, http.StatusInternalServerError, problemInternal, "Internal error", "an unexpected error occurred")
	}
}
