package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches all HTTP endpoints to the given engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/guest-token", h.GuestToken)

	r.POST("/rooms", h.CreateRoom)
	r.GET("/rooms", h.ListRooms)
	r.GET("/rooms/:id", h.GetRoom)
	r.POST("/rooms/:id/join", h.JoinRoom)
	r.POST("/rooms/:id/leave", h.LeaveRoom)
	r.POST("/rooms/:id/end", h.EndRoom)
	r.POST("/rooms/:id/signal", h.SendSignal)
	r.GET("/rooms/:id/signal", h.ReceiveSignals)
	r.DELETE("/rooms/:id/signal", h.PurgeSignals)
	r.GET("/rooms/:id/events", h.ServeEvents)
}
