package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/mediakit/mediakit/media"
)

// Key fingerprints one capability invocation: the capability identity,
// its serialized configuration, and a content identity for the input.
type Key struct {
	// Capability is the capability name.
	Capability string
	// ConfigHash is a deterministic digest of the resolved options.
	ConfigHash string
	// InputID is the input payload's content identity.
	InputID string
}

// KeyFor derives a Key from a capability invocation. Option maps with
// equal contents produce equal keys regardless of insertion order.
func KeyFor(capability string, options map[string]string, input media.Payload) (Key, error) {
	inputID, err := input.ContentID()
	if err != nil {
		return Key{}, err
	}
	return Key{
		Capability: capability,
		ConfigHash: hashOptions(options),
		InputID:    inputID,
	}, nil
}

// Fingerprint collapses the key into a single deterministic hash string.
func (k Key) Fingerprint() string {
	sum := sha256.Sum256([]byte(k.Capability + "\x00" + k.ConfigHash + "\x00" + k.InputID))
	return hex.EncodeToString(sum[:])
}

func hashOptions(options map[string]string) string {
	if len(options) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(options[k])
		b.WriteByte('\x00')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
