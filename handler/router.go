package handler

import (
	"net/http"
	"time"

	"github.com/Aashish23092/payslip-ledger/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewRouter wires every route. maxMultipartMemory bounds the upload buffer.
func NewRouter(paySlips *PaySlipHandler, salaries *SalaryHandler, log zerolog.Logger, maxMultipartMemory int64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))
	if maxMultipartMemory > 0 {
		router.MaxMultipartMemory = maxMultipartMemory
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Payslip Ledger",
		})
	})

	api := router.Group("/api/v1")
	{
		slips := api.Group("/payslips")
		{
			slips.POST("", paySlips.Upload)
			slips.GET("", paySlips.List)
			slips.GET("/:id", paySlips.Get)
			slips.POST("/:id/process", paySlips.Process)
		}

		ledger := api.Group("/salaries")
		{
			ledger.GET("", salaries.List)
			ledger.POST("", salaries.Create)
			ledger.GET("/statistics", salaries.Statistics)
			ledger.GET("/trends", salaries.Trends)
			ledger.GET("/top", salaries.Top)
		}
	}

	return router
}

// RequestLogger attaches a request scoped logger to the context and logs
// each request once it completes.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		log := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}
