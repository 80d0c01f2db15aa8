// Package token generates the short identifiers and capability secrets used
// throughout the service, and hashes room passwords for storage.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// randBase36 returns n characters drawn uniformly from the base36 alphabet.
func randBase36(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken;
			// fall back to a time-derived character rather than panic.
			b.WriteByte(base36[time.Now().UnixNano()%int64(len(base36))])
			continue
		}
		b.WriteByte(base36[idx.Int64()])
	}
	return b.String()
}

// NewID produces a message identifier: a random base36 fragment concatenated
// with the current time in base36. Uniqueness is statistical, not enforced.
func NewID() string {
	return randBase36(11) + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// NewRoomID derives a short, lowercase, human-shareable room code from the
// low bits of the epoch-seconds clock plus two random characters. Collisions
// are possible and handled by the caller with a suffix retry.
func NewRoomID() string {
	ts := strconv.FormatInt(time.Now().Unix(), 36)
	if len(ts) > 3 {
		ts = ts[len(ts)-3:]
	}
	return strings.ToLower(ts + randBase36(2))
}

// NewUserID produces the ephemeral per-submission user identifier.
func NewUserID() string {
	return randBase36(6)
}

// NewHostKey generates the room capability token. It is independent of the
// room id and long enough that possession implies creatorship.
func NewHostKey() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// Same posture as randBase36: degrade instead of crashing.
		return randBase36(43)
	}
	return hex.EncodeToString(buf)
}

// HashPassword returns the hex-encoded SHA-256 digest of a room password.
// The digest is deterministic so stored and submitted passwords compare by
// simple equality.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
