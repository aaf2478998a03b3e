package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/Basit2121/OneSuite/internal/models"
	"github.com/Basit2121/OneSuite/internal/storage"

	"github.com/gin-gonic/gin"
)

// CreateRoomRequest represents the room creation request. Both fields are
// optional; an omitted id gets a generated UUID.
type CreateRoomRequest struct {
	ID          string           `json:"id"`
	OwnerUserID *models.Identity `json:"owner_user_id"`
}

// JoinRoomRequest represents the join request. Registered users send their
// user id, guests send a display name.
type JoinRoomRequest struct {
	UserID    models.Identity `json:"user_id"`
	GuestName string          `json:"guest_name"`
}

// LeaveRoomRequest represents the leave request.
type LeaveRoomRequest struct {
	UserID models.Identity `json:"user_id"`
}

// CreateRoom handles POST /rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	// Empty or malformed bodies are treated as "no options"; browser clients
	// may post no body at all.
	var req CreateRoomRequest
	_ = c.ShouldBindJSON(&req)

	var owner *string
	if req.OwnerUserID != nil && !req.OwnerUserID.IsZero() {
		s := req.OwnerUserID.String()
		owner = &s
	}

	room, err := h.Store.CreateRoom(req.ID, owner)
	if err != nil {
		if errors.Is(err, storage.ErrRoomExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Room with this ID already exists."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// ListRooms handles GET /rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Store.ListRooms(c.Query("owner_user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoom handles GET /rooms/:id.
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.Store.GetRoom(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// JoinRoom handles POST /rooms/:id/join. Guests get a synthetic identity
// derived from their display name.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	_ = c.ShouldBindJSON(&req)

	participant := req.UserID
	if participant.IsZero() && req.GuestName != "" {
		participant = models.GuestIdentity(req.GuestName)
	}

	result, err := h.Store.JoinRoom(c.Param("id"), participant.String())
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// LeaveRoom handles POST /rooms/:id/leave. The browser client fires this via
// sendBeacon on unload, so the body may be missing entirely.
func (h *Handler) LeaveRoom(c *gin.Context) {
	var req LeaveRoomRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.Store.LeaveRoom(c.Param("id"), req.UserID.String())
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// EndRoom handles POST /rooms/:id/end.
func (h *Handler) EndRoom(c *gin.Context) {
	room, err := h.Store.EndRoom(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Printf("INFO: Room %s ended, duration %ds", room.ID, derefInt64(room.DurationSeconds))
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
