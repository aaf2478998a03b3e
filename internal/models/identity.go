package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Identity is a participant identifier as it appears in request bodies.
// Registered users send their numeric id, guests send a synthetic string id,
// so the field accepts either a JSON number or a JSON string.
type Identity string

// UnmarshalJSON accepts a JSON string, number or null.
func (i *Identity) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*i = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*i = Identity(str)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("identity must be a string or integer: %w", err)
	}
	*i = Identity(strconv.FormatInt(n, 10))
	return nil
}

// MarshalJSON emits the identity as a JSON string.
func (i Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(i))
}

func (i Identity) String() string { return string(i) }

// IsZero reports whether no identity was supplied.
func (i Identity) IsZero() bool { return i == "" }

// GuestIdentity derives a synthetic id for an unauthenticated participant.
// The name+timestamp scheme is weakly unique; collisions are accepted because
// guest identities are room-scoped and short-lived.
func GuestIdentity(name string) Identity {
	name = strings.Join(strings.Fields(name), "-")
	return Identity(fmt.Sprintf("guest_%s_%d", name, time.Now().UnixMilli()))
}
