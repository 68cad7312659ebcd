package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultReportDays is how far back a report starts when no start is given.
const defaultReportDays = 7

// userDataOrError loads the authenticated user's sub-document, writing a 500
// response on failure.
func (h *Handler) userDataOrError(c *gin.Context) (*UserData, bool) {
	u, err := h.repo.GetUserData(c, c.GetString("username"))
	if err != nil {
		h.logger.Error("load user data failed", zap.String("user", c.GetString("username")), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to load user data")
		return nil, false
	}
	return u, true
}

// dateParam reads a YYYY-MM-DD query or body value, defaulting to today.
func (h *Handler) dateParam(c *gin.Context, value string) (string, bool) {
	if value == "" {
		return formatDate(h.now()), true
	}
	if _, err := parseDate(value); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return "", false
	}
	return value, true
}

func kindParam(c *gin.Context) (EntryKind, bool) {
	kind, err := parseEntryKind(c.Param("kind"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "kind must be one of: food, exercise")
		return "", false
	}
	return kind, true
}

// getDailySummary returns the day's entries and calorie summary.
// GET /api/tracker/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailySummary(c *gin.Context) {
	date, ok := h.dateParam(c, c.Query("date"))
	if !ok {
		return
	}
	u, ok := h.userDataOrError(c)
	if !ok {
		return
	}

	day := u.Day(date)
	c.JSON(http.StatusOK, dailySummary{
		Date:     date,
		Food:     day.Food,
		Exercise: day.Exercise,
		Summary:  Summarize(day, u.Settings),
		Settings: u.Settings,
	})
}

// createEntry appends a food or exercise entry to a day.
// POST /api/entries/:kind. Defaults date to today if omitted.
func (h *Handler) createEntry(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var body createEntryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	date, ok := h.dateParam(c, body.Date)
	if !ok {
		return
	}

	entry, err := h.ledger.Append(c, c.GetString("username"), date, kind, body.entry())
	if err != nil {
		h.logger.Error("append entry failed", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to create entry")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"date": date, "kind": kind, "entry": entry})
}

// updateEntry patches an existing entry. Omitted fields keep their value.
// PUT /api/entries/:kind/:id?date=YYYY-MM-DD.
func (h *Handler) updateEntry(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	date, ok := h.dateParam(c, c.Query("date"))
	if !ok {
		return
	}
	var body entryPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.ledger.Update(c, c.GetString("username"), date, kind, c.Param("id"), body)
	if err != nil {
		if errors.Is(err, errEntryNotFound) {
			apiError(c, http.StatusNotFound, "entry not found")
		} else {
			h.logger.Error("update entry failed", zap.Error(err))
			apiError(c, http.StatusInternalServerError, "failed to update entry")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "kind": kind, "entry": entry})
}

// deleteEntry removes an entry. Returns 204 on success.
// DELETE /api/entries/:kind/:id?date=YYYY-MM-DD.
func (h *Handler) deleteEntry(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	date, ok := h.dateParam(c, c.Query("date"))
	if !ok {
		return
	}

	err := h.ledger.Delete(c, c.GetString("username"), date, kind, c.Param("id"))
	if err != nil {
		if errors.Is(err, errEntryNotFound) {
			apiError(c, http.StatusNotFound, "entry not found")
		} else {
			h.logger.Error("delete entry failed", zap.Error(err))
			apiError(c, http.StatusInternalServerError, "failed to delete entry")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// getEarliestLogDate returns the earliest date the user has an entry.
// GET /api/entries/earliest-date. Returns { "date": null } if no entries exist.
func (h *Handler) getEarliestLogDate(c *gin.Context) {
	u, ok := h.userDataOrError(c)
	if !ok {
		return
	}
	if date, found := u.EarliestDate(); found {
		c.JSON(http.StatusOK, gin.H{"date": date})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": nil})
}

// getReport returns bucketed calorie and macro series for a date range.
// GET /api/reports?start=YYYY-MM-DD&end=YYYY-MM-DD&granularity=daily|weekly|monthly.
// end defaults to today, start to a week before end, granularity to daily.
func (h *Handler) getReport(c *gin.Context) {
	end, ok := h.dateParam(c, c.Query("end"))
	if !ok {
		return
	}
	endDate, _ := parseDate(end)
	start := c.Query("start")
	if start == "" {
		start = formatDate(endDate.AddDate(0, 0, -defaultReportDays))
	}
	startDate, err := parseDate(start)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	if startDate.After(endDate) {
		apiError(c, http.StatusBadRequest, errInvalidRange.Error())
		return
	}
	g, err := parseGranularity(c.DefaultQuery("granularity", string(GranularityDaily)))
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	u, ok := h.userDataOrError(c)
	if !ok {
		return
	}
	report, err := BuildReport(u, startDate, endDate, g)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, report)
}
