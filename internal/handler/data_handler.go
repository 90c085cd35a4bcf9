package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"focustimer/internal/middleware"
	"focustimer/internal/service"
)

type DataHandler struct {
	dataService *service.DataService
}

type sessionsRequest struct {
	Sessions json.RawMessage `json:"sessions"`
}

type settingsRequest struct {
	Settings json.RawMessage `json:"settings"`
}

func NewDataHandler(dataService *service.DataService) *DataHandler {
	return &DataHandler{dataService: dataService}
}

func (h *DataHandler) GetSessions(c *gin.Context) {
	userID := middleware.UserID(c)
	doc, apiErr := h.dataService.GetSessions(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rev": doc.Rev, "sessions": doc.Body})
}

func (h *DataHandler) PutSessions(c *gin.Context) {
	var req sessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Sessions == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	rev, apiErr := h.dataService.SaveSessions(c.Request.Context(), userID, req.Sessions)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rev": rev})
}

func (h *DataHandler) GetSettings(c *gin.Context) {
	userID := middleware.UserID(c)
	doc, apiErr := h.dataService.GetSettings(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rev": doc.Rev, "settings": doc.Body})
}

func (h *DataHandler) PutSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Settings == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	rev, apiErr := h.dataService.SaveSettings(c.Request.Context(), userID, req.Settings)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rev": rev})
}

func (h *DataHandler) Clear(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.dataService.Clear(c.Request.Context(), userID); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

// Watch long-polls until the user's documents change past the given
// revision or the server-side timeout fires.
func (h *DataHandler) Watch(c *gin.Context) {
	since := int64(0)
	if raw := c.Query("rev"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"code": "invalid_rev", "message": "rev must be an integer"},
			})
			return
		}
		since = parsed
	}

	userID := middleware.UserID(c)
	rev, apiErr := h.dataService.Watch(c.Request.Context(), userID, since)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rev": rev})
}
