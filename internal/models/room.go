package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room represents a meeting room with its aggregate participant counters.
// Counters are only ever mutated through the storage layer's join/leave/end
// operations so that the invariants below hold:
//
//	current_participants <= peak_participants
//	peak_participants and total_joined never decrease
//	moderator_id, once set, never changes for the life of the room
type Room struct {
	// ID is the unique room identifier, caller-supplied or a generated UUID.
	ID string `gorm:"primaryKey" json:"id"`
	// OwnerUserID references the user that created the room, if any. Users
	// live in an external auth service; only the opaque id is stored here.
	OwnerUserID *string `gorm:"index" json:"owner_user_id"`
	// CreatedAt is the timestamp when the room was created.
	CreatedAt time.Time `json:"created_at"`
	// EndedAt is null while the room is active.
	EndedAt *time.Time `json:"ended_at"`
	// DurationSeconds is computed once when the room ends.
	DurationSeconds *int64 `json:"duration_seconds"`
	// CurrentParticipants is the live participant count, floored at zero.
	CurrentParticipants int `gorm:"not null;default:0" json:"current_participants"`
	// PeakParticipants is the high-water mark of CurrentParticipants.
	PeakParticipants int `gorm:"not null;default:0" json:"peak_participants"`
	// TotalJoined counts every join call ever made against the room.
	TotalJoined int `gorm:"not null;default:0" json:"total_joined"`
	// ModeratorID is the identity of the first participant to join.
	ModeratorID *string `json:"moderator_id"`
}

// BeforeCreate generates a room id when the caller did not supply one.
func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// Ended reports whether the room has been ended.
func (r *Room) Ended() bool {
	return r.EndedAt != nil
}

// JoinResult is returned by the membership coordinator after a join.
type JoinResult struct {
	CurrentParticipants int     `json:"current_participants"`
	TotalJoined         int     `json:"total_joined"`
	PeakParticipants    int     `json:"peak_participants"`
	ModeratorID         *string `json:"moderator_id"`
	IsModerator         bool    `json:"is_moderator"`
	IsNewModerator      bool    `json:"is_new_moderator"`
}

// LeaveResult is returned by the membership coordinator after a leave.
type LeaveResult struct {
	CurrentParticipants int     `json:"current_participants"`
	ModeratorID         *string `json:"moderator_id"`
	IsModerator         bool    `json:"is_moderator"`
}
