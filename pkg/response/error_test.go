package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgErrors "github.com/vogiaan1904/eventhub-seatsync/pkg/errors"
)

func TestError_HTTPError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, pkgErrors.NewHTTPError(40401, "Event not found").WithStatus(http.StatusNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body Resp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 40401, body.ErrorCode)
	assert.Equal(t, "Event not found", body.Message)
}

func TestError_Unknown(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}
