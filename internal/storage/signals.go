package storage

import (
	"encoding/json"
	"log"
	"time"

	"github.com/Basit2121/OneSuite/internal/models"

	"github.com/redis/go-redis/v9"
)

// signalChannelPrefix namespaces the per-room Redis pub/sub channels used by
// the live feed.
const signalChannelPrefix = "signals:"

// SignalChannel returns the Redis channel name for a room's envelopes.
func SignalChannel(meetingID string) string {
	return signalChannelPrefix + meetingID
}

// AppendSignal appends an envelope to the room's mailbox. The database
// assigns the sequence id. When Redis is configured the envelope is also
// published to the room's channel for live-feed subscribers; publish failures
// are logged and ignored since the durable mailbox is the source of truth.
func (s *Service) AppendSignal(sig *models.Signal) error {
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}

	if err := s.DB.Create(sig).Error; err != nil {
		log.Printf("ERROR: Failed to append signal for room %s: %v", sig.MeetingID, err)
		return err
	}

	if s.Redis != nil {
		payload, err := json.Marshal(sig)
		if err != nil {
			return nil
		}
		if err := s.Redis.Publish(s.Ctx, SignalChannel(sig.MeetingID), payload).Err(); err != nil {
			log.Printf("WARNING: Failed to publish signal %d for room %s: %v", sig.ID, sig.MeetingID, err)
		}
	}
	return nil
}

// SignalsAfter returns the envelopes visible to userID with an id greater
// than lastID, in assignment order: envelopes addressed to the user or
// broadcast to the room, excluding the user's own.
func (s *Service) SignalsAfter(meetingID, userID string, lastID uint) ([]models.Signal, error) {
	var signals []models.Signal
	err := s.DB.
		Where("meeting_id = ?", meetingID).
		Where("to_user = ? OR to_user IS NULL", userID).
		Where("from_user != ?", userID).
		Where("id > ?", lastID).
		Order("id ASC").
		Find(&signals).Error
	if err != nil {
		log.Printf("ERROR: Failed to fetch signals for room %s: %v", meetingID, err)
		return nil, err
	}
	return signals, nil
}

// PurgeExpiredSignals deletes a room's envelopes older than ttl and returns
// the number of rows removed. Rows newer than the ttl are never touched, so
// a concurrent poll cannot lose undelivered envelopes.
func (s *Service) PurgeExpiredSignals(meetingID string, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res := s.DB.
		Where("meeting_id = ?", meetingID).
		Where("created_at < ?", cutoff).
		Delete(&models.Signal{})
	if res.Error != nil {
		log.Printf("ERROR: Failed to purge signals for room %s: %v", meetingID, res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// PurgeAllExpiredSignals deletes expired envelopes across every room. Used by
// the background sweeper.
func (s *Service) PurgeAllExpiredSignals(ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res := s.DB.
		Where("created_at < ?", cutoff).
		Delete(&models.Signal{})
	if res.Error != nil {
		log.Printf("ERROR: Failed to purge expired signals: %v", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SubscribeSignals subscribes to every room's signal channel. The live feed
// hub consumes the returned PubSub.
func (s *Service) SubscribeSignals() *redis.PubSub {
	return s.Redis.PSubscribe(s.Ctx, signalChannelPrefix+"*")
}
