package storage

import (
	"errors"
	"log"
	"time"

	"github.com/Basit2121/OneSuite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockedRoom fetches a room inside tx, holding a row lock on PostgreSQL so
// that concurrent counter updates to the same room serialize. SQLite has no
// FOR UPDATE; its transactions are single-writer, which gives the same
// guarantee.
func lockedRoom(tx *gorm.DB, id string) (*models.Room, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var room models.Room
	err := q.Where("id = ?", id).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom inserts a room with zeroed counters. The id is optional; an
// empty id gets a generated UUID via the model's BeforeCreate hook.
func (s *Service) CreateRoom(id string, ownerUserID *string) (*models.Room, error) {
	room := &models.Room{
		ID:          id,
		OwnerUserID: ownerUserID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.DB.Create(room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRoomExists
		}
		log.Printf("ERROR: Failed to create room %q: %v", id, err)
		return nil, err
	}
	return room, nil
}

// GetRoom fetches a single room by id.
func (s *Service) GetRoom(id string) (*models.Room, error) {
	var room models.Room
	err := s.DB.Where("id = ?", id).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", id, err)
		return nil, err
	}
	return &room, nil
}

// ListRooms returns rooms newest-first, optionally filtered by owner.
func (s *Service) ListRooms(ownerUserID string) ([]models.Room, error) {
	q := s.DB.Order("created_at DESC")
	if ownerUserID != "" {
		q = q.Where("owner_user_id = ?", ownerUserID)
	}

	var rooms []models.Room
	if err := q.Find(&rooms).Error; err != nil {
		log.Printf("ERROR: Failed to list rooms: %v", err)
		return nil, err
	}
	return rooms, nil
}

// EndRoom closes a room: records ended_at, computes the duration and zeroes
// the live participant count. Ending an already-ended room is a no-op that
// returns the stored row unchanged.
func (s *Service) EndRoom(id string) (*models.Room, error) {
	var ended *models.Room
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		room, err := lockedRoom(tx, id)
		if err != nil {
			return err
		}
		if room.Ended() {
			ended = room
			return nil
		}

		now := time.Now().UTC()
		duration := int64(now.Sub(room.CreatedAt).Seconds())
		if duration < 0 {
			duration = 0
		}

		updates := map[string]interface{}{
			"ended_at":             now,
			"duration_seconds":     duration,
			"current_participants": 0,
		}
		if err := tx.Model(&models.Room{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		room.EndedAt = &now
		room.DurationSeconds = &duration
		room.CurrentParticipants = 0
		ended = room
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			log.Printf("ERROR: Failed to end room %s: %v", id, err)
		}
		return nil, err
	}
	return ended, nil
}

// JoinRoom increments the room counters and elects the moderator when this is
// the very first join. The read-modify-write runs inside one transaction so
// two concurrent first-joins can never both win the election.
func (s *Service) JoinRoom(id, participant string) (*models.JoinResult, error) {
	var result *models.JoinResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		room, err := lockedRoom(tx, id)
		if err != nil {
			return err
		}

		current := room.CurrentParticipants + 1
		total := room.TotalJoined + 1
		peak := room.PeakParticipants
		if current > peak {
			peak = current
		}

		updates := map[string]interface{}{
			"current_participants": current,
			"total_joined":         total,
			"peak_participants":    peak,
		}

		isNewModerator := false
		if total == 1 && participant != "" && room.ModeratorID == nil {
			updates["moderator_id"] = participant
			moderator := participant
			room.ModeratorID = &moderator
			isNewModerator = true
		}

		if err := tx.Model(&models.Room{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		result = &models.JoinResult{
			CurrentParticipants: current,
			TotalJoined:         total,
			PeakParticipants:    peak,
			ModeratorID:         room.ModeratorID,
			IsModerator:         participant != "" && room.ModeratorID != nil && *room.ModeratorID == participant,
			IsNewModerator:      isNewModerator,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			log.Printf("ERROR: Failed to join room %s: %v", id, err)
		}
		return nil, err
	}
	return result, nil
}

// LeaveRoom decrements the live participant count, floored at zero. Peak,
// total and moderator are left untouched.
func (s *Service) LeaveRoom(id, participant string) (*models.LeaveResult, error) {
	var result *models.LeaveResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		room, err := lockedRoom(tx, id)
		if err != nil {
			return err
		}

		current := room.CurrentParticipants - 1
		if current < 0 {
			current = 0
		}

		if err := tx.Model(&models.Room{}).Where("id = ?", id).
			Update("current_participants", current).Error; err != nil {
			return err
		}

		result = &models.LeaveResult{
			CurrentParticipants: current,
			ModeratorID:         room.ModeratorID,
			IsModerator:         participant != "" && room.ModeratorID != nil && *room.ModeratorID == participant,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			log.Printf("ERROR: Failed to leave room %s: %v", id, err)
		}
		return nil, err
	}
	return result, nil
}
