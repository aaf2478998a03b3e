package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Basit2121/OneSuite/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Sentinel errors surfaced by the storage layer. Handlers map these to HTTP
// status codes; anything else is an internal error.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

// Storage is the persistence contract for rooms and the signal mailbox.
type Storage interface {
	// Room store
	CreateRoom(id string, ownerUserID *string) (*models.Room, error)
	GetRoom(id string) (*models.Room, error)
	ListRooms(ownerUserID string) ([]models.Room, error)
	EndRoom(id string) (*models.Room, error)

	// Membership coordinator
	JoinRoom(id, participant string) (*models.JoinResult, error)
	LeaveRoom(id, participant string) (*models.LeaveResult, error)

	// Signal mailbox
	AppendSignal(sig *models.Signal) error
	SignalsAfter(meetingID, userID string, lastID uint) ([]models.Signal, error)
	PurgeExpiredSignals(meetingID string, ttl time.Duration) (int64, error)
	PurgeAllExpiredSignals(ttl time.Duration) (int64, error)
}

// Service implements Storage on top of PostgreSQL (or the SQLite fallback)
// via GORM, with Redis used to fan appended signals out to the live feed.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor. Redis may be nil when the live feed is not
// wired (admin CLI, tests).
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// Migrate creates the schema. Run once at process startup, never lazily from
// request paths.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Room{},
		&models.Signal{},
	)
}
