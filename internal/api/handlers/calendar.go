package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/calendar"
	"github.com/tunetools/tunetools-api/internal/middleware"
)

type CalendarHandler struct {
	calendars *calendar.Service
}

func NewCalendarHandler(calendars *calendar.Service) *CalendarHandler {
	return &CalendarHandler{calendars: calendars}
}

// Connect returns the Google OAuth consent URL for the calendar scope
func (h *CalendarHandler) Connect(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_url": h.calendars.AuthURL(userID)})
}

// Callback completes the OAuth exchange. The state parameter carries the
// user id issued in Connect.
func (h *CalendarHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code or state"})
		return
	}

	userID, err := uuid.Parse(state)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
		return
	}

	if err := h.calendars.HandleCallback(c.Request.Context(), userID, code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Calendar connection failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": true})
}

// Status reports whether the user has a calendar connected
func (h *CalendarHandler) Status(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": h.calendars.Connected(userID)})
}

// Revoke disconnects the calendar and forgets stored tokens
func (h *CalendarHandler) Revoke(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.calendars.Revoke(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect calendar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": false})
}
