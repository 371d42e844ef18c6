package handler

import (
	"errors"
	"net/http"

	"github.com/naka-gawa/github-portfolio/internal/domain"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func toErrorResponse(code, message string) errorResponse {
	return errorResponse{Error: apiError{Code: code, Message: message}}
}

// statusFor maps an engine error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	if errors.Is(err, domain.ErrInvalidUsername) {
		return http.StatusBadRequest, "INVALID_USERNAME"
	}

	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		switch {
		case remote.NotFound():
			return http.StatusNotFound, "NOT_FOUND"
		case remote.RateLimited, remote.Status == http.StatusTooManyRequests:
			return http.StatusTooManyRequests, "RATE_LIMITED"
		case remote.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized, "UNAUTHORIZED"
		default:
			return http.StatusBadGateway, "UPSTREAM_ERROR"
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
