package utils

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// TrackingSessionCookie names the cookie that ties a visitor's events
// together for unique-view counting.
const TrackingSessionCookie = "nm_session"

// TrackingSessionTTL is how long a tracking session cookie lives.
const TrackingSessionTTL = 30 * time.Minute

// GenerateSessionID returns a random URL-safe session identifier.
func GenerateSessionID() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
