package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Basit2121/OneSuite/internal/api/handler"
	"github.com/Basit2121/OneSuite/internal/models"
	"github.com/Basit2121/OneSuite/internal/storage"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testJWTSecret = []byte("test-secret")

// newTestRouter wires a gin engine to a throwaway SQLite store. The live
// event feed is left off; it needs Redis and has its own tests.
func newTestRouter(t *testing.T) (*gin.Engine, *storage.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))

	s := storage.NewStorageService(db, nil)
	h := handler.NewHandler(s, nil, testJWTSecret, time.Hour)

	r := gin.New()
	h.RegisterRoutes(r)
	return r, s
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestCreateRoom_WithAndWithoutBody(t *testing.T) {
	r, _ := newTestRouter(t)

	// No body at all: still creates a room with a generated id
	w := doJSON(t, r, http.MethodPost, "/rooms", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Room models.Room `json:"room"`
	}
	decodeBody(t, w, &created)
	assert.NotEmpty(t, created.Room.ID)
	assert.Nil(t, created.Room.OwnerUserID)

	// Explicit id and a numeric owner id
	w = doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "standup", "owner_user_id": 7})
	require.Equal(t, http.StatusCreated, w.Code)
	decodeBody(t, w, &created)
	assert.Equal(t, "standup", created.Room.ID)
	require.NotNil(t, created.Room.OwnerUserID)
	assert.Equal(t, "7", *created.Room.OwnerUserID)
}

func TestCreateRoom_DuplicateIDReturns409(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "standup"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "standup"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
}

func TestGetRoom_Returns404WhenMissing(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/rooms/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Room not found")
}

func TestListRooms_EmptyIsAnArray(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/rooms", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rooms":[]}`, w.Body.String())
}

// TestJoinLeaveEnd_FullLifecycle drives a room through its whole lifecycle
// over HTTP: two joins, moderator election, a leave, then end.
func TestJoinLeaveEnd_FullLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})
	require.Equal(t, http.StatusCreated, w.Code)

	// First identified joiner wins the election
	w = doJSON(t, r, http.MethodPost, "/rooms/r1/join", gin.H{"user_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var join models.JoinResult
	decodeBody(t, w, &join)
	assert.Equal(t, 1, join.CurrentParticipants)
	assert.True(t, join.IsNewModerator)
	assert.True(t, join.IsModerator)
	require.NotNil(t, join.ModeratorID)
	assert.Equal(t, "1", *join.ModeratorID)

	// Second joiner sees the existing moderator
	w = doJSON(t, r, http.MethodPost, "/rooms/r1/join", gin.H{"user_id": "2"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &join)
	assert.Equal(t, 2, join.CurrentParticipants)
	assert.Equal(t, 2, join.PeakParticipants)
	assert.False(t, join.IsNewModerator)
	assert.False(t, join.IsModerator)

	// Leave keeps the moderator assignment
	w = doJSON(t, r, http.MethodPost, "/rooms/r1/leave", gin.H{"user_id": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var leave models.LeaveResult
	decodeBody(t, w, &leave)
	assert.Equal(t, 1, leave.CurrentParticipants)
	require.NotNil(t, leave.ModeratorID)
	assert.Equal(t, "1", *leave.ModeratorID)

	// End freezes counters and reports a duration
	w = doJSON(t, r, http.MethodPost, "/rooms/r1/end", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ended struct {
		Room models.Room `json:"room"`
	}
	decodeBody(t, w, &ended)
	require.NotNil(t, ended.Room.EndedAt)
	require.NotNil(t, ended.Room.DurationSeconds)
	assert.Equal(t, 0, ended.Room.CurrentParticipants)
	assert.Equal(t, 2, ended.Room.PeakParticipants)
}

func TestEndRoom_IsIdempotent(t *testing.T) {
	r, _ := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})

	first := doJSON(t, r, http.MethodPost, "/rooms/r1/end", nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := doJSON(t, r, http.MethodPost, "/rooms/r1/end", nil)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b struct {
		Room models.Room `json:"room"`
	}
	decodeBody(t, first, &a)
	decodeBody(t, second, &b)
	assert.True(t, a.Room.EndedAt.Equal(*b.Room.EndedAt))
}

func TestJoinRoom_GuestGetsSyntheticIdentity(t *testing.T) {
	r, s := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})

	w := doJSON(t, r, http.MethodPost, "/rooms/r1/join", gin.H{"guest_name": "Ann Lee"})

	require.Equal(t, http.StatusOK, w.Code)
	var join models.JoinResult
	decodeBody(t, w, &join)
	assert.True(t, join.IsNewModerator, "a guest identity still wins the election")
	require.NotNil(t, join.ModeratorID)
	assert.True(t, strings.HasPrefix(*join.ModeratorID, "guest_Ann-Lee_"))

	room, err := s.GetRoom("r1")
	require.NoError(t, err)
	assert.Equal(t, *join.ModeratorID, *room.ModeratorID)
}

func TestJoinRoom_Returns404WhenRoomMissing(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms/missing/join", gin.H{"user_id": 1})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendSignal_ValidationErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"from_user":`},
		{name: "missing from_user", body: `{"signal_type":"webrtc-signal"}`},
		{name: "missing signal_type", body: `{"from_user":"alice"}`},
		{name: "unknown signal_type", body: `{"from_user":"alice","signal_type":"chat-message"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rooms/r1/signal", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// TestSignalRoundtrip covers send/receive over HTTP: directed and broadcast
// envelopes, the sender exclusion, and cursor advancement.
func TestSignalRoundtrip(t *testing.T) {
	r, _ := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})

	send := func(from string, to *string, sigType string) {
		body := gin.H{"from_user": from, "signal_type": sigType, "signal_data": gin.H{"type": "offer", "sdp": "v=0"}}
		if to != nil {
			body["to_user"] = *to
		}
		w := doJSON(t, r, http.MethodPost, "/rooms/r1/signal", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	}

	bob := "bob"
	send("alice", &bob, models.SignalTypeWebRTC)
	send("alice", nil, models.SignalTypeUserJoined)

	var resp struct {
		Signals []handler.SignalResponse `json:"signals"`
	}

	// Bob sees both; alice's own envelopes are invisible to her
	w := doJSON(t, r, http.MethodGet, "/rooms/r1/signal?user_id=bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Len(t, resp.Signals, 2)
	assert.Equal(t, models.SignalTypeWebRTC, resp.Signals[0].SignalType)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(resp.Signals[0].SignalData))

	w = doJSON(t, r, http.MethodGet, "/rooms/r1/signal?user_id=alice", nil)
	decodeBody(t, w, &resp)
	assert.Empty(t, resp.Signals)

	// A third participant only sees the broadcast
	w = doJSON(t, r, http.MethodGet, "/rooms/r1/signal?user_id=carol", nil)
	decodeBody(t, w, &resp)
	require.Len(t, resp.Signals, 1)
	assert.Equal(t, models.SignalTypeUserJoined, resp.Signals[0].SignalType)

	// The cursor excludes already-seen ids
	w = doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/rooms/r1/signal?user_id=carol&last_id=%d", resp.Signals[0].ID), nil)
	decodeBody(t, w, &resp)
	assert.Empty(t, resp.Signals)
}

func TestReceiveSignals_ValidationErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})

	w := doJSON(t, r, http.MethodGet, "/rooms/r1/signal", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user_id")

	w = doJSON(t, r, http.MethodGet, "/rooms/r1/signal?user_id=bob&last_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "last_id")
}

func TestPurgeSignals_RemovesExpiredOnly(t *testing.T) {
	r, s := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})

	old := &models.Signal{
		MeetingID:  "r1",
		FromUser:   "alice",
		SignalType: models.SignalTypeWebRTC,
		SignalData: []byte(`{}`),
	}
	require.NoError(t, s.AppendSignal(old))
	require.NoError(t, s.DB.Model(&models.Signal{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().UTC().Add(-2*time.Hour)).Error)
	fresh := &models.Signal{
		MeetingID:  "r1",
		FromUser:   "alice",
		SignalType: models.SignalTypeWebRTC,
		SignalData: []byte(`{}`),
	}
	require.NoError(t, s.AppendSignal(fresh))

	w := doJSON(t, r, http.MethodDelete, "/rooms/r1/signal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	remaining, err := s.SignalsAfter("r1", "bob", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

// TestGuestToken_IssuesVerifiableJWT verifies the token parses with the
// shared secret and carries the synthetic guest identity.
func TestGuestToken_IssuesVerifiableJWT(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/guest-token?name=Ann", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token   string `json:"token"`
		GuestID string `json:"guest_id"`
	}
	decodeBody(t, w, &resp)
	assert.True(t, strings.HasPrefix(resp.GuestID, "guest_Ann_"))

	parsed, err := jwt.Parse(resp.Token, func(token *jwt.Token) (any, error) {
		return testJWTSecret, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, resp.GuestID, claims["guest_id"])
	assert.Equal(t, "onesuite-meetings", claims["iss"])
}

func TestServeEvents_UnavailableWithoutHub(t *testing.T) {
	r, _ := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/rooms", gin.H{"id": "r1"})

	w := doJSON(t, r, http.MethodGet, "/rooms/r1/events?user_id=alice", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
