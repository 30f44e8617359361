package response

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgErrors "github.com/vogiaan1904/eventhub-seatsync/pkg/errors"
)

type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func parseHttpError(err error) (int, Resp) {
	var httpErr *pkgErrors.HTTPError
	if errors.As(err, &httpErr) {
		statusCode := httpErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}

		return statusCode, Resp{
			ErrorCode: httpErr.Code,
			Message:   httpErr.Message,
		}
	}

	return http.StatusInternalServerError, Resp{
		ErrorCode: 500,
		Message:   "Internal server error",
	}
}

// Error writes err as a JSON error body. Errors that are not HTTPError become 500.
func Error(w http.ResponseWriter, err error) {
	statusCode, body := parseHttpError(err)
	JSON(w, statusCode, body)
}

// ValidationError writes a 400 carrying per-field messages.
func ValidationError(w http.ResponseWriter, code int, fields map[string]string) {
	JSON(w, http.StatusBadRequest, Resp{
		ErrorCode: code,
		Message:   "Validation failed",
		Errors:    fields,
	})
}

func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
