package handler

import (
	"net/http"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/Aashish23092/payslip-ledger/logger"
	"github.com/Aashish23092/payslip-ledger/service"
	"github.com/gin-gonic/gin"
)

// PaySlipHandler handles pay slip upload and extraction requests
type PaySlipHandler struct {
	paySlipService *service.PaySlipService
	maxFileSize    int64
}

// NewPaySlipHandler creates a new PaySlipHandler instance
func NewPaySlipHandler(paySlipService *service.PaySlipService, maxFileSize int64) *PaySlipHandler {
	return &PaySlipHandler{
		paySlipService: paySlipService,
		maxFileSize:    maxFileSize,
	}
}

// Upload handles POST /payslips. The slip is processed before the response
// is written; a failed extraction still creates the record and answers 422.
func (h *PaySlipHandler) Upload(c *gin.Context) {
	req := dto.UploadPaySlipRequest{OwnerID: c.PostForm("owner_id")}
	if file, err := c.FormFile("file"); err == nil {
		req.File = file
	}
	if err := req.Validate(h.maxFileSize); err != nil {
		sendServiceError(c, err)
		return
	}

	f, err := req.File.Open()
	if err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	defer f.Close()

	log := logger.FromContext(c.Request.Context())
	log.Info().Str("owner_id", req.OwnerID).Str("file", req.File.Filename).Int64("size", req.File.Size).Msg("received pay slip upload")

	result, err := h.paySlipService.Upload(c.Request.Context(), req.OwnerID, req.File.Filename, f)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Process handles POST /payslips/:id/process
func (h *PaySlipHandler) Process(c *gin.Context) {
	result, err := h.paySlipService.ProcessPaySlip(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /payslips/:id
func (h *PaySlipHandler) Get(c *gin.Context) {
	slip, err := h.paySlipService.GetPaySlip(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slip)
}

// List handles GET /payslips?owner_id=
func (h *PaySlipHandler) List(c *gin.Context) {
	owner, ok := ownerParam(c)
	if !ok {
		return
	}

	slips, err := h.paySlipService.ListPaySlips(c.Request.Context(), owner)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if slips == nil {
		slips = []dto.PaySlip{}
	}
	c.JSON(http.StatusOK, dto.ListPaySlipsResponse{PaySlips: slips, Count: len(slips)})
}
