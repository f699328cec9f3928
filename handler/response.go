package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/Aashish23092/payslip-ledger/logger"
	"github.com/Aashish23092/payslip-ledger/repository"
	"github.com/gin-gonic/gin"
)

const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeNotFound        = "NOT_FOUND"
	codeDuplicatePeriod = "DUPLICATE_PERIOD"
	codeInternal        = "INTERNAL_ERROR"
)

// sendError writes a dto.ErrorResponse. Server errors are logged with the
// request logger.
func sendError(c *gin.Context, statusCode int, code string, err error) {
	message := http.StatusText(statusCode)
	if err != nil {
		message = err.Error()
	}
	if statusCode >= http.StatusInternalServerError {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Str("code", code).Msg("request failed")
		message = "internal error"
	}

	c.AbortWithStatusJSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}

// sendServiceError maps well known errors to status codes.
func sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		sendError(c, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, repository.ErrDuplicatePeriod):
		sendError(c, http.StatusConflict, codeDuplicatePeriod, err)
	case errors.Is(err, dto.ErrOwnerRequired),
		errors.Is(err, dto.ErrFileRequired),
		errors.Is(err, dto.ErrUnsupportedFileType),
		errors.Is(err, dto.ErrInvalidPeriod),
		errors.Is(err, dto.ErrNegativeAmount):
		sendError(c, http.StatusBadRequest, codeInvalidRequest, err)
	case errors.Is(err, dto.ErrFileTooLarge):
		sendError(c, http.StatusRequestEntityTooLarge, codeInvalidRequest, err)
	default:
		sendError(c, http.StatusInternalServerError, codeInternal, err)
	}
}

// ownerParam reads the required owner_id query parameter.
func ownerParam(c *gin.Context) (string, bool) {
	owner := strings.TrimSpace(c.Query("owner_id"))
	if owner == "" {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, dto.ErrOwnerRequired)
		return "", false
	}
	return owner, true
}

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, errors.New(name+" must be an integer"))
		return 0, false
	}
	return v, true
}
