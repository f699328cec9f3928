package handler

import (
	"net/http"
	"time"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/Aashish23092/payslip-ledger/service"
	"github.com/gin-gonic/gin"
)

type SalaryHandler struct {
	ledger *service.LedgerService
	now    func() time.Time
}

func NewSalaryHandler(ledger *service.LedgerService) *SalaryHandler {
	return &SalaryHandler{ledger: ledger, now: time.Now}
}

// List handles GET /salaries?owner_id=
func (h *SalaryHandler) List(c *gin.Context) {
	owner, ok := ownerParam(c)
	if !ok {
		return
	}

	entries, err := h.ledger.ListSalaries(c.Request.Context(), owner)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []dto.SalaryEntry{}
	}
	c.JSON(http.StatusOK, dto.ListSalariesResponse{Salaries: entries, Count: len(entries)})
}

// Create handles POST /salaries for manually entered months.
func (h *SalaryHandler) Create(c *gin.Context) {
	var req dto.CreateSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	entry, err := h.ledger.CreateSalary(c.Request.Context(), req)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Statistics handles GET /salaries/statistics?owner_id=&year=
func (h *SalaryHandler) Statistics(c *gin.Context) {
	owner, ok := ownerParam(c)
	if !ok {
		return
	}
	year, ok := intQuery(c, "year", h.now().Year())
	if !ok {
		return
	}
	if !dto.ValidPeriod(1, year) {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, dto.ErrInvalidPeriod)
		return
	}

	stats, err := h.ledger.MonthlyStatistics(c.Request.Context(), owner, year)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Trends handles GET /salaries/trends?owner_id=&from=&to=. The default range
// is the last three years.
func (h *SalaryHandler) Trends(c *gin.Context) {
	owner, ok := ownerParam(c)
	if !ok {
		return
	}
	current := h.now().Year()
	from, ok := intQuery(c, "from", current-2)
	if !ok {
		return
	}
	to, ok := intQuery(c, "to", current)
	if !ok {
		return
	}

	trends, err := h.ledger.YearlyTrends(c.Request.Context(), owner, from, to)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// Top handles GET /salaries/top?owner_id=&limit=
func (h *SalaryHandler) Top(c *gin.Context) {
	owner, ok := ownerParam(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 5)
	if !ok {
		return
	}

	entries, err := h.ledger.TopEarningMonths(c.Request.Context(), owner, limit)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []dto.SalaryEntry{}
	}
	c.JSON(http.StatusOK, dto.ListSalariesResponse{Salaries: entries, Count: len(entries)})
}
