package handler

import (
	"time"

	"github.com/Basit2121/OneSuite/internal/signalhub"
	"github.com/Basit2121/OneSuite/internal/storage"
)

// Handler carries the dependencies shared by the HTTP endpoints.
type Handler struct {
	Store     storage.Storage
	Hub       *signalhub.ManagerService
	JWTSecret []byte
	SignalTTL time.Duration
}

func NewHandler(store storage.Storage, hub *signalhub.ManagerService, jwtSecret []byte, signalTTL time.Duration) *Handler {
	return &Handler{
		Store:     store,
		Hub:       hub,
		JWTSecret: jwtSecret,
		SignalTTL: signalTTL,
	}
}
