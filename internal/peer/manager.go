package peer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Basit2121/OneSuite/internal/models"
)

// SignalSender posts envelopes into the room's mailbox.
type SignalSender interface {
	SendSignal(to, signalType string, data any) error
}

// Transport is the full signaling surface the manager drives. *RoomClient is
// the production implementation.
type Transport interface {
	SignalSender
	FetchSignals() ([]Envelope, error)
	RoomEnded() (bool, error)
	Leave()
}

// Negotiator is one tracked peer-to-peer negotiation.
type Negotiator interface {
	PeerID() string
	// HandleRemoteSignal feeds the peer's SDP/ICE payload into the
	// negotiation. Re-delivered payloads must not break it.
	HandleRemoteSignal(data json.RawMessage) error
	Close() error
}

// NegotiatorFactory creates a negotiation with a peer. The initiator side
// sends the offer; the responder waits for it.
type NegotiatorFactory interface {
	NewNegotiator(sender SignalSender, selfID, peerID string, initiator bool) (Negotiator, error)
}

// Default polling cadence: signals every 2 seconds, room-ended checks every
// 5 seconds.
const (
	DefaultPollInterval      = 2 * time.Second
	DefaultRoomCheckInterval = 5 * time.Second
)

// Manager implements the peer-discovery protocol on top of the mailbox: it
// announces presence exactly once, opens one negotiation per discovered
// peer, ignores duplicate discovery signals and tears sessions down when
// peers leave or the room ends.
type Manager struct {
	Transport Transport
	Factory   NegotiatorFactory
	SelfID    string

	PollInterval      time.Duration
	RoomCheckInterval time.Duration

	// sessions tracks one negotiation per remote peer; only the Run loop
	// (and the poll/handle methods it calls) touches it.
	sessions  map[string]Negotiator
	announced bool
}

func NewManager(transport Transport, factory NegotiatorFactory, selfID string) *Manager {
	return &Manager{
		Transport:         transport,
		Factory:           factory,
		SelfID:            selfID,
		PollInterval:      DefaultPollInterval,
		RoomCheckInterval: DefaultRoomCheckInterval,
		sessions:          make(map[string]Negotiator),
	}
}

// presence is the payload of user-joined/user-left envelopes.
type presence struct {
	UserID string `json:"user_id"`
}

// Run drives the session until the context is cancelled or the room ends.
// On the way out it broadcasts user-left and fires the leave notification.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Announce(); err != nil {
		return err
	}

	poll := time.NewTicker(m.PollInterval)
	defer poll.Stop()
	roomCheck := time.NewTicker(m.RoomCheckInterval)
	defer roomCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return ctx.Err()

		case <-poll.C:
			if err := m.Poll(); err != nil {
				log.Printf("WARNING: Signal poll failed: %v", err)
			}

		case <-roomCheck.C:
			ended, err := m.Transport.RoomEnded()
			if err != nil {
				log.Printf("WARNING: Room check failed: %v", err)
				continue
			}
			if ended {
				log.Printf("INFO: Room ended, shutting down")
				m.Shutdown()
				return nil
			}
		}
	}
}

// Announce broadcasts user-joined once per session. Safe to call from every
// poll cycle; only the first call sends.
func (m *Manager) Announce() error {
	if m.announced {
		return nil
	}
	if err := m.Transport.SendSignal("", models.SignalTypeUserJoined, presence{UserID: m.SelfID}); err != nil {
		return err
	}
	m.announced = true
	return nil
}

// Poll fetches pending envelopes and applies them.
func (m *Manager) Poll() error {
	envelopes, err := m.Transport.FetchSignals()
	if err != nil {
		return err
	}
	for _, env := range envelopes {
		m.HandleEnvelope(env)
	}
	return nil
}

// HandleEnvelope applies one inbound envelope to the session state.
func (m *Manager) HandleEnvelope(env Envelope) {
	// The server filters out own envelopes; guard anyway since a stale
	// cursor can replay anything.
	if env.FromUser == m.SelfID {
		return
	}

	switch env.SignalType {
	case models.SignalTypeUserJoined:
		if _, exists := m.sessions[env.FromUser]; exists {
			// Duplicate announce for a peer already being negotiated with
			return
		}
		// Exactly one side of each pair initiates: the lexicographically
		// smaller identity. The other side answers when the offer arrives.
		if m.SelfID < env.FromUser {
			m.openSession(env.FromUser, true)
		}

	case models.SignalTypeWebRTC:
		sess, exists := m.sessions[env.FromUser]
		if !exists {
			// First signal from an unknown peer makes us the responder.
			sess = m.openSession(env.FromUser, false)
			if sess == nil {
				return
			}
		}
		if err := sess.HandleRemoteSignal(env.SignalData); err != nil {
			log.Printf("WARNING: Signal from %s not applied: %v", env.FromUser, err)
		}

	case models.SignalTypeUserLeft:
		if sess, exists := m.sessions[env.FromUser]; exists {
			sess.Close()
			delete(m.sessions, env.FromUser)
			log.Printf("INFO: Peer %s left, connection closed", env.FromUser)
		}
	}
}

func (m *Manager) openSession(peerID string, initiator bool) Negotiator {
	sess, err := m.Factory.NewNegotiator(m.Transport, m.SelfID, peerID, initiator)
	if err != nil {
		log.Printf("ERROR: Failed to open negotiation with %s: %v", peerID, err)
		return nil
	}
	m.sessions[peerID] = sess
	return sess
}

// Sessions returns the number of tracked peer negotiations.
func (m *Manager) Sessions() int {
	return len(m.sessions)
}

// Shutdown closes every negotiation and sends the best-effort goodbye.
func (m *Manager) Shutdown() {
	for peerID, sess := range m.sessions {
		sess.Close()
		delete(m.sessions, peerID)
	}
	if m.announced {
		if err := m.Transport.SendSignal("", models.SignalTypeUserLeft, presence{UserID: m.SelfID}); err != nil {
			log.Printf("WARNING: user-left broadcast failed: %v", err)
		}
	}
	m.Transport.Leave()
}
