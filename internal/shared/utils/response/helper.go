package response

import (
	"errors"
	"net/http"

	"ticketing/internal/shared/apperrors"
	"ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// StatusFor maps an error kind to the HTTP status used on the wire
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalid:
		return http.StatusBadRequest
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindPrecondition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondError renders err using its classification. Unclassified errors
// never leak their message to the client.
func RespondError(c *gin.Context, err error) {
	var ae apperrors.Error
	if !errors.As(err, &ae) {
		logger.GetDefault().LogHTTPError(c, err, http.StatusInternalServerError)
		RespondJSON(c, "error", http.StatusInternalServerError, "Internal server error", nil,
			ErrorDetail{Code: "INTERNAL_ERROR"})
		return
	}

	code := StatusFor(ae.Kind())
	if code >= http.StatusInternalServerError {
		logger.GetDefault().LogHTTPError(c, err, code)
		RespondJSON(c, "error", code, "Internal server error", nil, ErrorDetail{Code: ae.Code()})
		return
	}

	RespondJSON(c, "error", code, ae.Error(), nil, ErrorDetail{Code: ae.Code(), Detail: ae})
}

// RespondBindError reports a malformed request body or query
func RespondBindError(c *gin.Context, err error) {
	RespondJSON(c, "error", http.StatusBadRequest, "Invalid request", nil,
		ErrorDetail{Code: "INVALID_REQUEST", Detail: err.Error()})
}

// ParamUUID parses a uuid path parameter, answering 400 when it is malformed
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondJSON(c, "error", http.StatusBadRequest, "Invalid "+name, nil,
			ErrorDetail{Code: "INVALID_ID", Detail: name + " must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
