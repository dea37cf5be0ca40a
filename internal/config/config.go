// Package config provides the read-mostly configuration surface for
// the ingestion core: listen address and per-group size limits.
// Parsing lives here (TOML, via pelletier/go-toml); the values
// themselves are otherwise opaque data consumed by the validation
// chain and the protocol handler.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// GroupSetting matches a glob pattern against newsgroup names and caps
// article size for any group it matches.
type GroupSetting struct {
	Pattern         string `toml:"pattern"`
	MaxArticleBytes any    `toml:"max_article_bytes"` // int64 or a "<N>K"/"<N>M" string
}

// Config is the parsed configuration surface described in spec.md §6.
type Config struct {
	Addr          string         `toml:"addr"`
	GroupSettings []GroupSetting `toml:"group_settings"`
}

// Snapshot is the immutable view of Config a single validation pass
// reads; filters never see a config that changes mid-call.
type Snapshot = Config

// Parse decodes a TOML configuration document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// MaxSizeForGroup returns the configured size limit for group, if any
// group_settings entry's pattern matches it. The first matching entry
// whose max_article_bytes parses wins; matching entries with an
// unparseable value are skipped. ok is false when no such entry
// exists, meaning no limit is enforced for this group.
func (c Config) MaxSizeForGroup(group string) (limit int64, ok bool) {
	for _, gs := range c.GroupSettings {
		if !matchGlob(group, gs.Pattern) {
			continue
		}
		n, parseOK := parseByteSize(gs.MaxArticleBytes)
		if !parseOK {
			continue
		}
		return n, true
	}
	return 0, false
}

// parseByteSize interprets a max_article_bytes value: either a plain
// integer, or a string holding a decimal integer with an optional K/M
// suffix ("1K" == 1024, "2M" == 2*1024*1024).
func parseByteSize(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		mult := int64(1)
		switch suffix := s[len(s)-1]; suffix {
		case 'K', 'k':
			mult = 1024
			s = s[:len(s)-1]
		case 'M', 'm':
			mult = 1024 * 1024
			s = s[:len(s)-1]
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, false
		}
		return n * mult, true
	default:
		return 0, false
	}
}

// Store is a read-mostly, reloadable holder of Config, guarded by an
// RWMutex so filters can take a consistent Snapshot per validation
// call while a config reload runs concurrently.
type Store struct {
	mu  sync.RWMutex
	cur Config
}

// NewStore wraps an initial configuration.
func NewStore(cfg Config) *Store {
	return &Store{cur: cfg}
}

// Snapshot returns the current configuration. The returned value is
// never mutated in place by Reload, so holding onto it across a reload
// is safe.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Reload atomically swaps in a new configuration.
func (s *Store) Reload(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = cfg
}
