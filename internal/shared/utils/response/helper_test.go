package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticketing/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capacityErr struct {
	Requested int `json:"requested"`
	Remaining int `json:"remaining"`
}

func (e *capacityErr) Error() string        { return "capacity exceeded" }
func (e *capacityErr) Kind() apperrors.Kind { return apperrors.KindConflict }
func (e *capacityErr) Code() string         { return "CAPACITY_EXCEEDED" }

func render(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	RespondError(c, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondError_TypedDetail(t *testing.T) {
	w, body := render(t, fmt.Errorf("reserve: %w", &capacityErr{Requested: 2, Remaining: 0}))

	assert.Equal(t, http.StatusConflict, w.Code)
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "CAPACITY_EXCEEDED", errs["code"])
	detail := errs["detail"].(map[string]any)
	assert.Equal(t, float64(2), detail["requested"])
	assert.Equal(t, float64(0), detail["remaining"])
}

func TestRespondError_Unclassified(t *testing.T) {
	w, body := render(t, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperrors.KindInvalid))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(apperrors.KindPrecondition))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperrors.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperrors.KindInvariant))
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, 1, 20, 41)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPage(nil, 1, 0, 5).TotalPages)
}
