package handlers

import (
	"errors"
	"net/http"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

// Error codes returned in ErrorDetail.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeDataUnavailable  = "DATA_UNAVAILABLE"
	CodeNotFound         = "NOT_FOUND"
	CodeComparisonError  = "COMPARISON_ERROR"
)

func writeError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var (
		insufficient *model.InsufficientDataError
		invalid      *model.InvalidInputError
		provider     *data.ProviderError
	)
	switch {
	case errors.As(err, &insufficient):
		writeError(c, http.StatusUnprocessableEntity, CodeInsufficientData, err.Error(), map[string]interface{}{
			"have": insufficient.Have,
			"need": insufficient.Need,
		})
	case errors.Is(err, model.ErrInsufficientData):
		writeError(c, http.StatusUnprocessableEntity, CodeInsufficientData, err.Error(), nil)
	case errors.As(err, &invalid):
		writeError(c, http.StatusBadRequest, CodeInvalidInput, err.Error(), map[string]interface{}{
			"field": invalid.Field,
		})
	case errors.Is(err, model.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, CodeInvalidInput, err.Error(), nil)
	case errors.As(err, &provider):
		details := map[string]interface{}{"source": provider.Source}
		if provider.StatusCode != 0 {
			details["status_code"] = provider.StatusCode
		}
		writeError(c, http.StatusBadGateway, CodeDataUnavailable, err.Error(), details)
	case errors.Is(err, model.ErrDataUnavailable):
		writeError(c, http.StatusBadGateway, CodeDataUnavailable, err.Error(), nil)
	default:
		writeError(c, http.StatusInternalServerError, CodeComparisonError, err.Error(), nil)
	}
}
