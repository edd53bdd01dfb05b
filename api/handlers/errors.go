// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts domain errors into failure bodies with the right HTTP status

package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"linkparse-api/api/dto/responses"
	"linkparse-api/core/errors"
)

// toFailure converts domain errors to a failure body huma can write
func toFailure(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.IsInvalidURL(err), errors.IsValidation(err):
		return responses.NewParseFailure(http.StatusBadRequest, err.Error())

	case errors.IsSecurityRejected(err):
		// never echo the guard's detail back to the caller
		return responses.NewParseFailure(http.StatusUnprocessableEntity, "url could not be fetched")

	case errors.IsOverloaded(err):
		retry := time.Second
		var overloaded *errors.OverloadedError
		if stderrors.As(err, &overloaded) && overloaded.RetryAfter > 0 {
			retry = overloaded.RetryAfter
		}
		return responses.NewParseFailure(http.StatusServiceUnavailable, "upstream is busy, retry later").WithRetryAfter(retry)

	case errors.IsTimeout(err):
		return responses.NewParseFailure(http.StatusGatewayTimeout, "parse timed out")

	case errors.IsNotFound(err):
		return responses.NewParseFailure(http.StatusNotFound, err.Error())
	}

	return responses.NewParseFailure(http.StatusInternalServerError, "internal error")
}
