package models

import (
	"encoding/json"
	"time"
)

// Signal types understood by the protocol handler. Anything else is rejected
// with a validation error.
const (
	// SignalTypeWebRTC carries an SDP offer/answer or ICE candidate blob.
	SignalTypeWebRTC = "webrtc-signal"
	// SignalTypeUserJoined announces a participant entering the room.
	SignalTypeUserJoined = "user-joined"
	// SignalTypeUserLeft announces a participant leaving the room.
	SignalTypeUserLeft = "user-left"
)

// KnownSignalType reports whether t is one of the supported signal types.
func KnownSignalType(t string) bool {
	switch t {
	case SignalTypeWebRTC, SignalTypeUserJoined, SignalTypeUserLeft:
		return true
	}
	return false
}

// Signal is one envelope in a room's mailbox. Envelopes are append-only and
// never mutated; the autoincrement ID doubles as the polling cursor.
type Signal struct {
	// ID is the monotonically increasing sequence number assigned on insert.
	ID uint `gorm:"primaryKey" json:"id"`
	// MeetingID is the room this envelope belongs to.
	MeetingID string `gorm:"type:text;not null;index:idx_meeting_signal" json:"meeting_id"`
	// FromUser is the sender's participant identity.
	FromUser string `gorm:"type:text;not null" json:"from_user"`
	// ToUser addresses a single participant; null means broadcast.
	ToUser *string `gorm:"type:text" json:"to_user,omitempty"`
	// SignalType is one of the SignalType constants.
	SignalType string `gorm:"type:text;not null" json:"signal_type"`
	// SignalData is the opaque payload (SDP/ICE blob or presence metadata).
	SignalData json.RawMessage `gorm:"type:jsonb" json:"signal_data"`
	// CreatedAt drives time-based retention.
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Broadcast reports whether the envelope is addressed to the whole room.
func (s *Signal) Broadcast() bool {
	return s.ToUser == nil
}
