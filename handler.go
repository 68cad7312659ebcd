package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler holds shared dependencies for all route handlers.
type Handler struct {
	store     *StoreAdapter
	repo      *Repository
	ledger    *Ledger
	jwtSecret []byte
	logger    *zap.Logger
	now       func() time.Time // overridable for tests
}

func NewHandler(store *StoreAdapter, jwtSecret []byte, logger *zap.Logger) *Handler {
	repo := NewRepository(store, logger)
	return &Handler{
		store:     store,
		repo:      repo,
		ledger:    NewLedger(repo),
		jwtSecret: jwtSecret,
		logger:    logger,
		now:       time.Now,
	}
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// requestLogger logs one line per request after it completes.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// health reports whether the primary document store is attached.
// GET /api/health (public).
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "primary_ready": h.store.Ready()})
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerValidations(v)
	}

	// Public routes
	router.GET("/api/health", h.health)
	router.POST("/api/register", h.register)
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/tracker/daily", h.getDailySummary)
	api.POST("/entries/:kind", h.createEntry)
	api.PUT("/entries/:kind/:id", h.updateEntry)
	api.DELETE("/entries/:kind/:id", h.deleteEntry)
	api.GET("/entries/earliest-date", h.getEarliestLogDate)
	api.GET("/settings", h.getSettings)
	api.PUT("/settings", h.putSettings)
	api.GET("/reports", h.getReport)
}
