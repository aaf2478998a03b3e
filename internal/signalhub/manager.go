package signalhub

import (
	"log"

	"github.com/Basit2121/OneSuite/internal/models"

	"github.com/redis/go-redis/v9"
)

// SignalSubscriber provides the Redis subscription carrying every room's
// appended envelopes. Implemented by the storage service.
type SignalSubscriber interface {
	SubscribeSignals() *redis.PubSub
}

// ManagerService fans mailbox envelopes out to live-feed subscribers. It
// owns no protocol state: the durable mailbox remains the source of truth,
// the feed only saves subscribers from polling.
type ManagerService struct {
	// rooms indexes connected clients by room id. Only the Run goroutine
	// touches it.
	rooms map[string]map[Client]struct{}

	RegisterCh   chan Client
	UnregisterCh chan Client
	// EnvelopeCh receives every appended envelope, normally from the Redis
	// listener. Tests push into it directly.
	EnvelopeCh chan models.Signal

	Source SignalSubscriber
}

func NewManagerService(source SignalSubscriber) *ManagerService {
	return &ManagerService{
		rooms:        make(map[string]map[Client]struct{}),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EnvelopeCh:   make(chan models.Signal, 64),
		Source:       source,
	}
}

// Run is the hub's dispatcher loop. Start it in its own goroutine.
func (m *ManagerService) Run() {
	if m.Source != nil {
		m.startPubSubListener()
	}

	for {
		select {
		case client := <-m.RegisterCh:
			roomID := client.GetRoomID()
			if m.rooms[roomID] == nil {
				m.rooms[roomID] = make(map[Client]struct{})
			}
			m.rooms[roomID][client] = struct{}{}
			log.Printf("INFO: Feed client %s joined room %s", client.GetUserID(), roomID)

		case client := <-m.UnregisterCh:
			m.drop(client)

		case sig := <-m.EnvelopeCh:
			m.dispatch(sig)
		}
	}
}

// dispatch delivers an envelope to every eligible subscriber in its room,
// applying the same visibility rules as the poll endpoint: never back to the
// sender, and only to the target when the envelope is addressed.
func (m *ManagerService) dispatch(sig models.Signal) {
	for client := range m.rooms[sig.MeetingID] {
		if client.GetUserID() == sig.FromUser {
			continue
		}
		if !sig.Broadcast() && *sig.ToUser != client.GetUserID() {
			continue
		}

		select {
		case client.GetSendChannel() <- sig:
		default:
			// Slow consumer; it can fall back to polling with its cursor.
			log.Printf("WARNING: Dropping slow feed client %s in room %s", client.GetUserID(), sig.MeetingID)
			m.drop(client)
		}
	}
}

func (m *ManagerService) drop(client Client) {
	roomID := client.GetRoomID()
	if clients, ok := m.rooms[roomID]; ok {
		if _, registered := clients[client]; registered {
			delete(clients, client)
			if len(clients) == 0 {
				delete(m.rooms, roomID)
			}
			client.Close()
		}
	}
}
