package signalhub

import (
	"encoding/json"
	"log"

	"github.com/Basit2121/OneSuite/internal/models"
)

// startPubSubListener consumes the Redis subscription feeding EnvelopeCh.
// Appended envelopes arrive here from whichever server instance accepted the
// send, so fanout works across replicas.
func (m *ManagerService) startPubSubListener() {
	go func() {
		pubsub := m.Source.SubscribeSignals()
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var sig models.Signal
			if err := json.Unmarshal([]byte(msg.Payload), &sig); err != nil {
				log.Printf("ERROR: Failed to unmarshal pub/sub envelope: %v", err)
				continue
			}
			m.EnvelopeCh <- sig
		}
	}()
}
