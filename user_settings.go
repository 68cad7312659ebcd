package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getSettings returns the authenticated user's calorie targets.
// GET /api/settings.
func (h *Handler) getSettings(c *gin.Context) {
	u, ok := h.userDataOrError(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u.Settings)
}

// putSettings replaces the maintenance and target calories.
// PUT /api/settings. Both fields are required and must be positive.
func (h *Handler) putSettings(c *gin.Context) {
	var body settingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "maintenanceCalories and targetCalories must be positive numbers")
		return
	}

	s, err := h.repo.SaveSettings(c, c.GetString("username"), Settings{
		MaintenanceCalories: body.MaintenanceCalories,
		TargetCalories:      body.TargetCalories,
	})
	if err != nil {
		h.logger.Error("save settings failed", zap.String("user", c.GetString("username")), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to update settings")
		return
	}

	c.JSON(http.StatusOK, s)
}
