package signalhub

import "github.com/Basit2121/OneSuite/internal/models"

// Client is the interface for one live-feed subscription. It abstracts the
// underlying transport so the hub can manage connections uniformly and tests
// can substitute doubles.
type Client interface {
	// GetUserID returns the participant identity behind the subscription.
	// Envelopes from this identity are not echoed back to it.
	GetUserID() string
	// GetRoomID returns the room whose envelopes the client receives.
	GetRoomID() string

	// GetSendChannel returns the channel the hub delivers envelopes on.
	GetSendChannel() chan<- models.Signal

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and channels.
	Close()
}
