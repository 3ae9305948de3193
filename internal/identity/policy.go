// Package identity derives conversation identifiers. An explicit caller id
// always wins; otherwise the configured mode decides whether an identifier is
// hashed from content, generated randomly, or withheld entirely.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/raphaelgruber/convostore-go/internal/models"
)

// Mode selects the derivation strategy used when no explicit id is supplied.
type Mode string

const (
	// ModeStrict never derives an identifier; absence is a caller-visible
	// error condition.
	ModeStrict Mode = "strict"
	// ModeContentHash derives a deterministic identifier from the first-turn
	// system+user pair, falling back to nothing for any other shape.
	ModeContentHash Mode = "content_hash"
	// ModeAutoGenerate always produces a fresh random identifier.
	ModeAutoGenerate Mode = "auto"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeStrict, ModeContentHash, ModeAutoGenerate:
		return true
	}
	return false
}

// hashPrefixLen is the number of hex characters kept from the digest.
const hashPrefixLen = 16

// Policy resolves effective conversation identifiers. It is a pure value;
// Resolve has no side effects beyond randomness in auto mode.
type Policy struct {
	mode Mode
}

// NewPolicy returns a policy for the given mode.
func NewPolicy(mode Mode) Policy {
	return Policy{mode: mode}
}

// Mode returns the configured derivation mode.
func (p Policy) Mode() Mode {
	return p.mode
}

// Resolve decides the effective identifier for a request. A non-blank
// suppliedID is returned unchanged. Otherwise the mode dispatches:
// strict yields nothing, content-hash yields a digest only for the exact
// two-message system+user shape, auto always yields a random identifier.
// ok is false when no identifier could be derived; the caller decides whether
// that is fatal (strict) or a cue to fall back to Random.
func (p Policy) Resolve(suppliedID string, messages []models.Message) (id string, ok bool) {
	if trimmed := strings.TrimSpace(suppliedID); trimmed != "" {
		return trimmed, true
	}

	switch p.mode {
	case ModeContentHash:
		return contentHash(messages)
	case ModeAutoGenerate:
		return Random(), true
	default: // strict
		return "", false
	}
}

// contentHash derives an identifier from a (system, user) first turn. The
// digest is over the UTF-8 bytes of "{systemText}|{userText}" regardless of
// message order, so byte-identical pairs always map to the same conversation.
func contentHash(messages []models.Message) (string, bool) {
	if len(messages) != 2 {
		return "", false
	}

	var systemText, userText string
	var haveSystem, haveUser bool
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			if haveSystem {
				return "", false
			}
			systemText = m.Text()
			haveSystem = true
		case models.RoleUser:
			if haveUser {
				return "", false
			}
			userText = m.Text()
			haveUser = true
		default:
			return "", false
		}
	}
	if !haveSystem || !haveUser {
		return "", false
	}

	sum := sha256.Sum256([]byte(systemText + "|" + userText))
	return hex.EncodeToString(sum[:])[:hashPrefixLen], true
}

// Random returns a fresh random identifier with 128 bits of entropy, hex
// encoded without separators.
func Random() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
