// File: pkg/resource/gcp/errors.go
package gcp

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

func apiErrorCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func isNotFound(err error) bool {
	return apiErrorCode(err) == http.StatusNotFound
}

func isConflict(err error) bool {
	return apiErrorCode(err) == http.StatusConflict
}

// Rate limiting and server-side failures are worth another attempt
func isTransient(err error) bool {
	code := apiErrorCode(err)
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
