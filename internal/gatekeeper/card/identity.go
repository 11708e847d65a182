package card

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The facade-identity scheme: cards never expose their real identifier at
// system boundaries, only identifiers derived from it.

// DeriveFacadeID produces the standard facade identifier for a real card id:
// SHA-256 of the id, rendered as lowercase hex. Deterministic — the same
// real id always yields the same facade id.
func DeriveFacadeID(realID string) string {
	sum := sha256.Sum256([]byte(realID))
	return hex.EncodeToString(sum[:])
}

// Obfuscate appends a truncated keyed digest suffix to an identifier,
// producing a longer, harder-to-guess id for the secure factory:
//
//	id + "-" + first12(base64(sha256(id)))
//
// The original system fell back to id+"-SECURE-"+millis when the hash
// primitive was unavailable; crypto/sha256 is always linked into a Go
// binary, so that path cannot occur and is intentionally not carried.
func Obfuscate(id string) string {
	sum := sha256.Sum256([]byte(id))
	suffix := base64.StdEncoding.EncodeToString(sum[:])
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	return id + "-" + suffix
}

// EncryptID derives a time-keyed identifier for lookup obfuscation:
//
//	id + "_" + hex(hour,minute) + "_" + dayOfYear+year + "_" + randomSuffix
//
// This is demonstrative obfuscation only, NOT a security boundary: anyone
// who has observed the format can forge a candidate whose day/year component
// matches, and verification will accept it. It confers no cryptographic
// integrity and must never be treated as authentication.
func EncryptID(id string, t time.Time) string {
	timeSig := fmt.Sprintf("%02x%02x", t.Hour(), t.Minute())
	dailyKey := fmt.Sprintf("%03d%04d", t.YearDay(), t.Year())
	random := uuid.NewString()[:8]
	return id + "_" + timeSig + "_" + dailyKey + "_" + random
}

// matchesDailyKey checks whether a candidate id embeds a day-of-year/year
// component matching t. ok is false when the candidate does not parse as the
// EncryptID format, in which case callers fall back to plain membership.
func matchesDailyKey(candidate string, t time.Time) (match, ok bool) {
	parts := strings.Split(candidate, "_")
	if len(parts) < 3 {
		return false, false
	}
	key := parts[2]
	if len(key) < 4 {
		return false, false
	}
	day, err := strconv.Atoi(key[:3])
	if err != nil {
		return false, false
	}
	year, err := strconv.Atoi(key[3:])
	if err != nil {
		return false, false
	}
	return day == t.YearDay() && year == t.Year(), true
}
