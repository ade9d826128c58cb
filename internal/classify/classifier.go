// Package classify maps failures onto the closed error taxonomy and
// decides default retry eligibility.
package classify

import (
	"errors"
	"net/http"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// statusCarrier is implemented by errors that know the HTTP-style
// status code of the failure they describe.
type statusCarrier interface {
	StatusCode() int
}

// StatusOf extracts an HTTP-style status code from an error chain.
// Returns 0 when no status is present (treated as a network-level
// failure by Categorize).
func StatusOf(err error) int {
	if err == nil {
		return 0
	}
	var sc statusCarrier
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// Categorize returns exactly one category for the given error.
//
// Decision order, first match wins:
//  1. offline connectivity always takes precedence: a stale cached
//     status is less trustworthy than live connectivity state
//  2. no status code means the request never completed
//  3. status code table
//  4. unknown
func Categorize(err error, online bool) domain.Category {
	if !online {
		return domain.CategoryOffline
	}

	status := StatusOf(err)
	if status == 0 {
		return domain.CategoryNetwork
	}

	switch status {
	case http.StatusUnauthorized:
		return domain.CategoryAuthentication
	case http.StatusForbidden:
		return domain.CategoryAuthorization
	case http.StatusNotFound:
		return domain.CategoryNotFound
	case http.StatusUnprocessableEntity:
		return domain.CategoryValidation
	case http.StatusTooManyRequests:
		return domain.CategoryRateLimit
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return domain.CategoryServer
	}

	return domain.CategoryUnknown
}

// Retryable reports whether a category is transient. Client errors
// (auth, validation, not found) rarely resolve by retrying.
func Retryable(c domain.Category) bool {
	switch c {
	case domain.CategoryNetwork, domain.CategoryServer, domain.CategoryRateLimit:
		return true
	}
	return false
}

// DefaultShouldRetry is the default retry predicate: retry when the
// failure has no status, or the status is a timeout, rate limit, or
// any 5xx.
func DefaultShouldRetry(err error) bool {
	status := StatusOf(err)
	if status == 0 {
		return true
	}
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

// Code returns the machine-readable code for a category, used on
// terminal structured errors.
func Code(c domain.Category) string {
	switch c {
	case domain.CategoryNetwork:
		return "NETWORK_ERROR"
	case domain.CategoryAuthentication:
		return "AUTH_REQUIRED"
	case domain.CategoryAuthorization:
		return "FORBIDDEN"
	case domain.CategoryValidation:
		return "VALIDATION_FAILED"
	case domain.CategoryNotFound:
		return "NOT_FOUND"
	case domain.CategoryServer:
		return "SERVER_ERROR"
	case domain.CategoryRateLimit:
		return "RATE_LIMITED"
	case domain.CategoryOffline:
		return "OFFLINE"
	}
	return "UNKNOWN_ERROR"
}
