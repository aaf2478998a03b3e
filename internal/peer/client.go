package peer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Basit2121/OneSuite/internal/models"
)

// Envelope is one signal as seen by a polling client.
type Envelope struct {
	ID         uint            `json:"id"`
	FromUser   string          `json:"from_user"`
	SignalType string          `json:"signal_type"`
	SignalData json.RawMessage `json:"signal_data"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RoomClient talks to the signaling server for a single room membership.
// It owns the polling cursor: the server keeps no per-client state, so a
// crashed client that rejoins simply starts again from zero and tolerates
// re-delivered envelopes.
type RoomClient struct {
	BaseURL string
	RoomID  string
	UserID  string
	HTTP    *http.Client

	lastID uint
}

func NewRoomClient(baseURL, roomID, userID string) *RoomClient {
	return &RoomClient{
		BaseURL: baseURL,
		RoomID:  roomID,
		UserID:  userID,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *RoomClient) roomURL(suffix string) string {
	return fmt.Sprintf("%s/rooms/%s%s", c.BaseURL, url.PathEscape(c.RoomID), suffix)
}

func (c *RoomClient) postJSON(url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Join registers the participant with the membership coordinator and returns
// the room counters plus moderator status.
func (c *RoomClient) Join() (*models.JoinResult, error) {
	var result models.JoinResult
	body := map[string]string{"user_id": c.UserID}
	if err := c.postJSON(c.roomURL("/join"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Leave notifies the coordinator that the participant is gone. Fire and
// forget: the call runs in the background and the caller cannot assume
// delivery succeeded, mirroring the browser's sendBeacon behavior.
func (c *RoomClient) Leave() {
	go func() {
		body := map[string]string{"user_id": c.UserID}
		if err := c.postJSON(c.roomURL("/leave"), body, nil); err != nil {
			log.Printf("WARNING: Leave notification for room %s failed: %v", c.RoomID, err)
		}
	}()
}

// SendSignal posts one envelope to the room's mailbox. An empty to targets
// the whole room.
func (c *RoomClient) SendSignal(to, signalType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	body := map[string]any{
		"from_user":   c.UserID,
		"signal_type": signalType,
		"signal_data": json.RawMessage(payload),
	}
	if to != "" {
		body["to_user"] = to
	}
	return c.postJSON(c.roomURL("/signal"), body, nil)
}

// FetchSignals polls the mailbox for envelopes past the cursor and advances
// it. Duplicate delivery after a crash is expected and handled upstream.
func (c *RoomClient) FetchSignals() ([]Envelope, error) {
	u := c.roomURL("/signal") + "?user_id=" + url.QueryEscape(c.UserID) +
		"&last_id=" + strconv.FormatUint(uint64(c.lastID), 10)

	resp, err := c.HTTP.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d polling signals", resp.StatusCode)
	}

	var out struct {
		Signals []Envelope `json:"signals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	for _, sig := range out.Signals {
		if sig.ID > c.lastID {
			c.lastID = sig.ID
		}
	}
	return out.Signals, nil
}

// RoomEnded reports whether the room has been ended by its moderator.
func (c *RoomClient) RoomEnded() (bool, error) {
	resp, err := c.HTTP.Get(c.roomURL(""))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d fetching room", resp.StatusCode)
	}

	var out struct {
		Room models.Room `json:"room"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Room.Ended(), nil
}
