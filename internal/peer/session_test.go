package peer_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/Basit2121/OneSuite/internal/peer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSender records every payload a negotiation tries to send. ICE
// candidates arrive from pion's gathering goroutine, hence the lock.
type captureSender struct {
	mu       sync.Mutex
	payloads []json.RawMessage
}

func (c *captureSender) SendSignal(to, signalType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.payloads = append(c.payloads, raw)
	c.mu.Unlock()
	return nil
}

func (c *captureSender) ofType(t *testing.T, want string) []json.RawMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []json.RawMessage
	for _, raw := range c.payloads {
		var payload struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &payload))
		if payload.Type == want {
			out = append(out, raw)
		}
	}
	return out
}

// TestPionFactory_InitiatorSendsOffer verifies the initiating side opens its
// data channel and pushes an offer without waiting for the peer.
func TestPionFactory_InitiatorSendsOffer(t *testing.T) {
	factory := &peer.PionFactory{}
	sender := &captureSender{}

	sess, err := factory.NewNegotiator(sender, "alice", "bob", true)
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, "bob", sess.PeerID())
	offers := sender.ofType(t, "offer")
	require.Len(t, offers, 1)
	var payload struct {
		SDP string `json:"sdp"`
	}
	require.NoError(t, json.Unmarshal(offers[0], &payload))
	assert.Contains(t, payload.SDP, "v=0")
}

func TestPionFactory_ResponderStaysQuiet(t *testing.T) {
	factory := &peer.PionFactory{}
	sender := &captureSender{}

	sess, err := factory.NewNegotiator(sender, "bob", "alice", false)
	require.NoError(t, err)
	defer sess.Close()

	assert.Empty(t, sender.ofType(t, "offer"))
}

// TestPionSessions_OfferAnswerExchange wires an initiator and a responder
// back to back: the responder answers the initiator's offer and the initiator
// applies the answer.
func TestPionSessions_OfferAnswerExchange(t *testing.T) {
	factory := &peer.PionFactory{}
	aliceOut := &captureSender{}
	bobOut := &captureSender{}

	alice, err := factory.NewNegotiator(aliceOut, "alice", "bob", true)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := factory.NewNegotiator(bobOut, "bob", "alice", false)
	require.NoError(t, err)
	defer bob.Close()

	offers := aliceOut.ofType(t, "offer")
	require.Len(t, offers, 1)
	require.NoError(t, bob.HandleRemoteSignal(offers[0]))

	answers := bobOut.ofType(t, "answer")
	require.Len(t, answers, 1)
	require.NoError(t, alice.HandleRemoteSignal(answers[0]))
}

// TestPionSession_BuffersEarlyCandidates verifies a candidate arriving before
// the remote description is held back and applied after the offer, which is
// the common case when a whole poll batch lands at once.
func TestPionSession_BuffersEarlyCandidates(t *testing.T) {
	factory := &peer.PionFactory{}
	aliceOut := &captureSender{}
	bobOut := &captureSender{}

	alice, err := factory.NewNegotiator(aliceOut, "alice", "bob", true)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := factory.NewNegotiator(bobOut, "bob", "alice", false)
	require.NoError(t, err)
	defer bob.Close()

	early := json.RawMessage(`{"type":"candidate","candidate":{"candidate":"candidate:1 1 udp 2130706433 127.0.0.1 54321 typ host","sdpMid":"0","sdpMLineIndex":0}}`)
	require.NoError(t, bob.HandleRemoteSignal(early), "early candidate must be buffered, not rejected")

	offers := aliceOut.ofType(t, "offer")
	require.Len(t, offers, 1)
	require.NoError(t, bob.HandleRemoteSignal(offers[0]))
}

func TestPionSession_RejectsUnknownPayloadType(t *testing.T) {
	factory := &peer.PionFactory{}
	sender := &captureSender{}

	sess, err := factory.NewNegotiator(sender, "bob", "alice", false)
	require.NoError(t, err)
	defer sess.Close()

	assert.Error(t, sess.HandleRemoteSignal(json.RawMessage(`{"type":"renegotiate"}`)))
	assert.Error(t, sess.HandleRemoteSignal(json.RawMessage(`not json`)))
}
