package peer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Basit2121/OneSuite/internal/models"

	pion "github.com/pion/webrtc/v4"
)

// signalPayload is the signal_data of a webrtc-signal envelope.
type signalPayload struct {
	Type      string                 `json:"type"` // "offer", "answer" or "candidate"
	SDP       string                 `json:"sdp,omitempty"`
	Candidate *pion.ICECandidateInit `json:"candidate,omitempty"`
}

// PionFactory builds negotiations backed by pion/webrtc peer connections.
type PionFactory struct {
	// ICEServers defaults to Google's public STUN server when empty.
	ICEServers []pion.ICEServer
}

func (f *PionFactory) iceServers() []pion.ICEServer {
	if len(f.ICEServers) > 0 {
		return f.ICEServers
	}
	return []pion.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}
}

// NewNegotiator opens a peer connection toward peerID. The initiator side
// creates the data channel and sends the offer immediately; the responder
// side waits for the remote offer to arrive via HandleRemoteSignal.
func (f *PionFactory) NewNegotiator(sender SignalSender, selfID, peerID string, initiator bool) (Negotiator, error) {
	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: f.iceServers()})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	s := &pionSession{
		peerID: peerID,
		sender: sender,
		pc:     pc,
	}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		candidate := c.ToJSON()
		s.sendSignal(signalPayload{Type: "candidate", Candidate: &candidate})
	})

	if initiator {
		// The channel carries application data once the negotiation
		// completes; creating it is what makes pion include media lines
		// in the offer.
		if _, err := pc.CreateDataChannel("meeting", nil); err != nil {
			pc.Close()
			return nil, fmt.Errorf("create data channel: %w", err)
		}

		offer, err := pc.CreateOffer(nil)
		if err != nil {
			pc.Close()
			return nil, fmt.Errorf("create offer: %w", err)
		}
		if err := pc.SetLocalDescription(offer); err != nil {
			pc.Close()
			return nil, fmt.Errorf("set local description: %w", err)
		}
		s.sendSignal(signalPayload{Type: "offer", SDP: offer.SDP})
	}

	return s, nil
}

// pionSession is one tracked negotiation over a pion peer connection.
type pionSession struct {
	peerID string
	sender SignalSender
	pc     *pion.PeerConnection

	mu        sync.Mutex
	remoteSet bool
	// pending buffers candidates that arrive before the remote description,
	// which polling makes likely since a whole batch lands at once.
	pending []pion.ICECandidateInit
}

func (s *pionSession) PeerID() string { return s.peerID }

func (s *pionSession) sendSignal(payload signalPayload) {
	if err := s.sender.SendSignal(s.peerID, models.SignalTypeWebRTC, payload); err != nil {
		// Best effort; the peer re-polls and negotiation state is
		// recoverable from the remaining envelopes.
		return
	}
}

// HandleRemoteSignal applies one SDP or ICE payload from the peer.
func (s *pionSession) HandleRemoteSignal(data json.RawMessage) error {
	var payload signalPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse signal payload: %w", err)
	}

	switch payload.Type {
	case "offer":
		offer := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: payload.SDP}
		if err := s.pc.SetRemoteDescription(offer); err != nil {
			return fmt.Errorf("set remote offer: %w", err)
		}
		answer, err := s.pc.CreateAnswer(nil)
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := s.pc.SetLocalDescription(answer); err != nil {
			return fmt.Errorf("set local description: %w", err)
		}
		s.sendSignal(signalPayload{Type: "answer", SDP: answer.SDP})
		return s.flushCandidates()

	case "answer":
		answer := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: payload.SDP}
		if err := s.pc.SetRemoteDescription(answer); err != nil {
			return fmt.Errorf("set remote answer: %w", err)
		}
		return s.flushCandidates()

	case "candidate":
		if payload.Candidate == nil {
			return nil
		}
		s.mu.Lock()
		if !s.remoteSet {
			s.pending = append(s.pending, *payload.Candidate)
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
		return s.pc.AddICECandidate(*payload.Candidate)

	default:
		return fmt.Errorf("unexpected signal payload type %q", payload.Type)
	}
}

// flushCandidates adds candidates buffered before the remote description.
func (s *pionSession) flushCandidates() error {
	s.mu.Lock()
	s.remoteSet = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, c := range pending {
		if err := s.pc.AddICECandidate(c); err != nil {
			return fmt.Errorf("add buffered candidate: %w", err)
		}
	}
	return nil
}

func (s *pionSession) Close() error {
	return s.pc.Close()
}
