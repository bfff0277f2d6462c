package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxChunkSize bounds message detail fetches in flight.
const MaxChunkSize = 10

// Config tunes one scan pipeline.
type Config struct {
	// ServerBatchSize caps the page size requested from the mail API.
	ServerBatchSize int
	// ChunkSize is both the detail chunk length and its in-flight bound.
	ChunkSize int

	PageDelay  time.Duration
	ChunkDelay time.Duration

	DefaultMaxMessages int
	CacheTTL           time.Duration

	// LabelTTL is how long an enriched display name is memoized.
	LabelTTL time.Duration
	// MaxEnrichments bounds label lookups per scan.
	MaxEnrichments int

	ExcludedDomains []string
}

// DefaultExcludedDomains are personal webmail providers. Mail from them is
// correspondence, not a signup.
var DefaultExcludedDomains = []string{
	"gmail.com",
	"googlemail.com",
	"yahoo.com",
	"ymail.com",
	"outlook.com",
	"hotmail.com",
	"live.com",
	"msn.com",
	"icloud.com",
	"me.com",
	"mac.com",
	"aol.com",
	"protonmail.com",
	"proton.me",
	"gmx.com",
	"mail.com",
	"yandex.com",
	"zohomail.com",
}

func DefaultConfig() Config {
	return Config{
		ServerBatchSize:    100,
		ChunkSize:          10,
		PageDelay:          200 * time.Millisecond,
		ChunkDelay:         100 * time.Millisecond,
		DefaultMaxMessages: 200,
		CacheTTL:           time.Hour,
		LabelTTL:           24 * time.Hour,
		MaxEnrichments:     20,
		ExcludedDomains:    DefaultExcludedDomains,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ServerBatchSize <= 0 {
		c.ServerBatchSize = d.ServerBatchSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkSize > MaxChunkSize {
		c.ChunkSize = MaxChunkSize
	}
	if c.PageDelay < 0 {
		c.PageDelay = 0
	}
	if c.ChunkDelay < 0 {
		c.ChunkDelay = 0
	}
	if c.DefaultMaxMessages <= 0 {
		c.DefaultMaxMessages = d.DefaultMaxMessages
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.LabelTTL <= 0 {
		c.LabelTTL = d.LabelTTL
	}
	if c.MaxEnrichments < 0 {
		c.MaxEnrichments = 0
	}
	if c.ExcludedDomains == nil {
		c.ExcludedDomains = d.ExcludedDomains
	}
	return c
}

// =============================================================================
// Cache Keys
// =============================================================================

const (
	scanNamespace  = "scan"
	labelNamespace = "label"
)

// ScanKey identifies one cached scan result.
func ScanKey(userID, query string, maxMessages int) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(query)))
	return fmt.Sprintf("%s:%s:%d:%s", scanNamespace, userID, maxMessages, hex.EncodeToString(sum[:8]))
}

// LabelKey identifies a memoized display name.
func LabelKey(userID, domain string) string {
	return fmt.Sprintf("%s:%s:%s", labelNamespace, userID, domain)
}

// ValidUserID reports whether id can own cache keys. ':' separates key
// segments, so an id containing it could shadow another user's keys.
func ValidUserID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, ":")
}

// UserPattern matches every key owned by userID and no other user's keys.
func UserPattern(userID string) string {
	return "^(" + scanNamespace + "|" + labelNamespace + "):" + regexp.QuoteMeta(userID) + ":"
}
