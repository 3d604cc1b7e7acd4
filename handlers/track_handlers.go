// handlers/track_handlers.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"nearme/api/analytics"
	"nearme/api/middleware"
	"nearme/api/models"
	"nearme/api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnalyticsHandlers struct {
	Analytics *analytics.Service
}

func NewAnalyticsHandlers(s *analytics.Service) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		Analytics: s,
	}
}

// TrackEvent accepts one engagement event or an array of them. Invalid
// events are dropped by the analytics service; the endpoint still answers
// 202 so tracking never disturbs the page that sent it.
func (h *AnalyticsHandlers) TrackEvent(c *gin.Context) {
	incomingEvents, err := decodeEvents(c)
	if err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if len(incomingEvents) == 0 {
		c.JSON(http.StatusAccepted, gin.H{"received": 0, "accepted": 0})
		return
	}

	sessionID := trackingSession(c)
	for i := range incomingEvents {
		incomingEvents[i].EventID = uuid.NewString()
		incomingEvents[i].IPAddress = c.ClientIP()
		if incomingEvents[i].SessionID == "" {
			incomingEvents[i].SessionID = sessionID
		}
	}

	accepted := h.Analytics.TrackBatch(c.Request.Context(), incomingEvents)
	c.JSON(http.StatusAccepted, gin.H{"received": len(incomingEvents), "accepted": accepted})
}

func decodeEvents(c *gin.Context) ([]models.EngagementEvent, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	if body[0] == '[' {
		var events []models.EngagementEvent
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var event models.EngagementEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return []models.EngagementEvent{event}, nil
}

// trackingSession returns the visitor's tracking session, issuing a new
// session cookie when the request carries none.
func trackingSession(c *gin.Context) string {
	if sessionID, err := c.Cookie(utils.TrackingSessionCookie); err == nil && sessionID != "" {
		return sessionID
	}
	sessionID := utils.GenerateSessionID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.TrackingSessionCookie, sessionID, int(utils.TrackingSessionTTL.Seconds()), "/", "", false, true)
	return sessionID
}

// GetBusinessAnalytics returns the engagement report of one business.
// Query parameters: period (day|week|month|year, default week), and
// optional RFC3339 start and end.
func (h *AnalyticsHandlers) GetBusinessAnalytics(c *gin.Context) {
	businessID := c.Param("businessId")
	if !middleware.CanReadBusiness(c, businessID) {
		SendError(c, http.StatusForbidden, ErrorCodeForbidden, "Not allowed to read analytics for business '"+businessID+"'")
		return
	}

	period := models.Period(c.DefaultQuery("period", string(models.PeriodWeek)))

	start, err := utils.ParseOptionalTime("start", c.Query("start"))
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error(), ErrorDetail{Field: "start", Message: err.Error()})
		return
	}
	end, err := utils.ParseOptionalTime("end", c.Query("end"))
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error(), ErrorDetail{Field: "end", Message: err.Error()})
		return
	}

	report, err := h.Analytics.GetAnalytics(c.Request.Context(), businessID, period, start, end)
	if err != nil {
		SendValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
