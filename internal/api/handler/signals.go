package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Basit2121/OneSuite/internal/models"

	"github.com/gin-gonic/gin"
)

// SendSignalRequest represents one outbound envelope.
type SendSignalRequest struct {
	FromUser   models.Identity `json:"from_user"`
	ToUser     *string         `json:"to_user"`
	SignalType string          `json:"signal_type"`
	SignalData json.RawMessage `json:"signal_data"`
}

// SignalResponse is the envelope shape returned to polling clients. The
// meeting id and target are implied by the request, so only the fields a
// receiver acts on are included.
type SignalResponse struct {
	ID         uint            `json:"id"`
	FromUser   string          `json:"from_user"`
	SignalType string          `json:"signal_type"`
	SignalData json.RawMessage `json:"signal_data"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SendSignal handles POST /rooms/:id/signal. The reply carries no payload
// beyond the acknowledgement.
func (h *Handler) SendSignal(c *gin.Context) {
	var req SendSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if req.FromUser.IsZero() || req.SignalType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_user and signal_type are required"})
		return
	}
	if !models.KnownSignalType(req.SignalType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown signal_type"})
		return
	}

	sig := &models.Signal{
		MeetingID:  c.Param("id"),
		FromUser:   req.FromUser.String(),
		ToUser:     req.ToUser,
		SignalType: req.SignalType,
		SignalData: req.SignalData,
	}
	if err := h.Store.AppendSignal(sig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReceiveSignals handles GET /rooms/:id/signal. Each poll is a stateless
// query; the caller owns the cursor and may re-fetch ids it has already seen.
func (h *Handler) ReceiveSignals(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	var lastID uint64
	if raw := c.Query("last_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last_id must be an integer"})
			return
		}
		lastID = parsed
	}

	signals, err := h.Store.SignalsAfter(c.Param("id"), userID, uint(lastID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]SignalResponse, 0, len(signals))
	for _, s := range signals {
		out = append(out, SignalResponse{
			ID:         s.ID,
			FromUser:   s.FromUser,
			SignalType: s.SignalType,
			SignalData: s.SignalData,
			CreatedAt:  s.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"signals": out})
}

// PurgeSignals handles DELETE /rooms/:id/signal: best-effort removal of the
// room's envelopes past the retention window.
func (h *Handler) PurgeSignals(c *gin.Context) {
	if _, err := h.Store.PurgeExpiredSignals(c.Param("id"), h.SignalTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
