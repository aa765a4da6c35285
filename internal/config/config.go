package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Config holds all configuration for the overlay
type Config struct {
	// Enabled is the master switch; when false the overlay never attaches
	Enabled bool `json:"enabled"`

	// Verbose turns on operation logging (names and counts only)
	Verbose bool `json:"verbose"`

	// Domain must be contained in the page host name for the overlay to activate
	Domain string `json:"domain"`

	// LocatorFile replaces the embedded locator table (YAML, relative to config dir or absolute)
	LocatorFile string `json:"locator_file"`

	// Logging
	LogFile string `json:"log_file"`

	// Keyboard shortcuts
	Keys KeyBindings `json:"keys"`

	// Settle delays between asynchronous UI steps
	Delays Delays `json:"delays"`

	// Local usage counters
	Stats StatsConfig `json:"stats"`

	// Terminal preview palette
	Preview PreviewColors `json:"preview"`
}

// KeyBindings maps each shortcut to the key value the browser reports for it.
// Shifted keys are written as the produced character ("#", "I").
type KeyBindings struct {
	// Cursor
	Next    string `json:"next"`
	NextAlt string `json:"next_alt"`
	Prev    string `json:"prev"`
	PrevAlt string `json:"prev_alt"`
	Toggle  string `json:"toggle"`

	// Message actions
	Archive    string `json:"archive"`
	Delete     string `json:"delete"`
	DeleteAlt  string `json:"delete_alt"` // Unshifted key under Delete
	Reply      string `json:"reply"`
	ReplyAll   string `json:"reply_all"`
	Forward    string `json:"forward"`
	Star       string `json:"star"`
	StarAlt    string `json:"star_alt"`
	StarDigit  string `json:"star_digit"` // Unshifted key under StarAlt
	MarkRead   string `json:"mark_read"`
	MarkUnread string `json:"mark_unread"`
	Label      string `json:"label"` // Only active while more than one message is selected
	BackToList string `json:"back_to_list"`

	// Global
	Compose string `json:"compose"`
	Search  string `json:"search"`

	// Two-key navigation chords: ChordPrefix followed by one of the Go* keys
	ChordPrefix string `json:"chord_prefix"`
	GoInbox     string `json:"go_inbox"`
	GoStarred   string `json:"go_starred"`
	GoSent      string `json:"go_sent"`
	GoDrafts    string `json:"go_drafts"`
	GoAllMail   string `json:"go_all_mail"`
	GoTrash     string `json:"go_trash"`

	// Chord timeout (in milliseconds)
	ChordTimeoutMs int `json:"chord_timeout_ms"` // Time allowed between prefix and target (default: 1000ms)
}

// Delays are the fixed waits inserted between steps, in milliseconds. The host
// offers no render-complete signal so these are empirical.
type Delays struct {
	SettleAfterCloseMs   int `json:"settle_after_close_ms"`   // detail view closed -> navigate
	ToggleRemarkMs       int `json:"toggle_remark_ms"`        // checkbox toggled -> re-apply cursor marker
	ReassertAfterCloseMs int `json:"reassert_after_close_ms"` // detail view closed -> re-assert selection
	ReassertSettleMs     int `json:"reassert_settle_ms"`      // selection re-asserted -> act
	ActSingleMs          int `json:"act_single_ms"`           // one selected row -> act
	ActMultiMs           int `json:"act_multi_ms"`            // several selected rows -> act
	ActAfterCloseMs      int `json:"act_after_close_ms"`      // extra wait when a view was just closed
	ToggleToActMs        int `json:"toggle_to_act_ms"`        // cursor row toggled -> toolbar shows
	OpenToActMs          int `json:"open_to_act_ms"`          // row opened -> message controls show
	MarkerRefreshMs      int `json:"marker_refresh_ms"`       // periodic cursor marker re-assert
}

// StatsConfig controls the local operation counters
type StatsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"` // sqlite file; empty means DefaultStatsPath()
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Verbose:     false,
		Domain:      "mail.proton.me",
		LocatorFile: "",
		LogFile:     "",
		Keys:        DefaultKeyBindings(),
		Delays:      DefaultDelays(),
		Stats:       StatsConfig{Enabled: false},
		Preview:     DefaultPreviewColors(),
	}
}

// DefaultKeyBindings returns Gmail-style shortcuts
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Next:    "j",
		NextAlt: "]",
		Prev:    "k",
		PrevAlt: "[",
		Toggle:  "x",

		Archive:    "e",
		Delete:     "#",
		DeleteAlt:  "3",
		Reply:      "r",
		ReplyAll:   "a",
		Forward:    "f",
		Star:       "s",
		StarAlt:    "*",
		StarDigit:  "8",
		MarkRead:   "I",
		MarkUnread: "U",
		Label:      "l",
		BackToList: "u",

		Compose: "c",
		Search:  "/",

		ChordPrefix: "g",
		GoInbox:     "i",
		GoStarred:   "s",
		GoSent:      "t",
		GoDrafts:    "d",
		GoAllMail:   "a",
		GoTrash:     "#",

		ChordTimeoutMs: 1000, // 1 second between prefix and target
	}
}

// DefaultDelays returns the default settle delays
func DefaultDelays() Delays {
	return Delays{
		SettleAfterCloseMs:   350,
		ToggleRemarkMs:       60,
		ReassertAfterCloseMs: 400,
		ReassertSettleMs:     250,
		ActSingleMs:          120,
		ActMultiMs:           250,
		ActAfterCloseMs:      300,
		ToggleToActMs:        300,
		OpenToActMs:          500,
		MarkerRefreshMs:      2000,
	}
}

func ms(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Millisecond
}

// ChordTimeout returns the chord expiry, falling back to the default
func (k KeyBindings) ChordTimeout() time.Duration {
	return ms(k.ChordTimeoutMs, DefaultKeyBindings().ChordTimeoutMs)
}

func (d Delays) SettleAfterClose() time.Duration {
	return ms(d.SettleAfterCloseMs, DefaultDelays().SettleAfterCloseMs)
}

func (d Delays) ToggleRemark() time.Duration {
	return ms(d.ToggleRemarkMs, DefaultDelays().ToggleRemarkMs)
}

func (d Delays) ReassertAfterClose() time.Duration {
	return ms(d.ReassertAfterCloseMs, DefaultDelays().ReassertAfterCloseMs)
}

func (d Delays) ReassertSettle() time.Duration {
	return ms(d.ReassertSettleMs, DefaultDelays().ReassertSettleMs)
}

func (d Delays) ActSingle() time.Duration {
	return ms(d.ActSingleMs, DefaultDelays().ActSingleMs)
}

func (d Delays) ActMulti() time.Duration {
	return ms(d.ActMultiMs, DefaultDelays().ActMultiMs)
}

func (d Delays) ActAfterClose() time.Duration {
	return ms(d.ActAfterCloseMs, DefaultDelays().ActAfterCloseMs)
}

func (d Delays) ToggleToAct() time.Duration {
	return ms(d.ToggleToActMs, DefaultDelays().ToggleToActMs)
}

func (d Delays) OpenToAct() time.Duration {
	return ms(d.OpenToActMs, DefaultDelays().OpenToActMs)
}

func (d Delays) MarkerRefresh() time.Duration {
	return ms(d.MarkerRefreshMs, DefaultDelays().MarkerRefreshMs)
}

// LoadConfig loads configuration from file, keeping defaults for missing fields
func LoadConfig(configPath string) (*Config, error) {
	// Try to load from config file
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			return ParseConfig(data)
		}
	}
	return ParseConfig(nil)
}

// ParseConfig decodes a JSON configuration over the defaults. Empty data yields
// the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks for bindings that can never fire
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	plain := c.Keys.plain()
	names := make([]string, 0, len(plain))
	for name := range plain {
		names = append(names, name)
	}
	sort.Strings(names)

	owner := map[string]string{}
	for _, name := range names {
		key := plain[name]
		if c.Keys.ChordPrefix != "" && key == c.Keys.ChordPrefix {
			return fmt.Errorf("key %q for %s shadows the chord prefix", key, name)
		}
		if prev, ok := owner[key]; ok {
			return fmt.Errorf("key %q is bound to both %s and %s", key, prev, name)
		}
		owner[key] = name
	}
	return nil
}

func (k KeyBindings) plain() map[string]string {
	out := map[string]string{}
	for name, key := range map[string]string{
		"next": k.Next, "next_alt": k.NextAlt, "prev": k.Prev, "prev_alt": k.PrevAlt,
		"toggle": k.Toggle, "archive": k.Archive, "delete": k.Delete, "delete_alt": k.DeleteAlt,
		"reply": k.Reply, "reply_all": k.ReplyAll, "forward": k.Forward,
		"star": k.Star, "star_alt": k.StarAlt, "star_digit": k.StarDigit,
		"mark_read": k.MarkRead, "mark_unread": k.MarkUnread, "label": k.Label,
		"back_to_list": k.BackToList, "compose": k.Compose, "search": k.Search,
	} {
		if key != "" {
			out[name] = key
		}
	}
	return out
}

// applyDefaults fills zero-valued sections left out of a partial config file
func (c *Config) applyDefaults() {
	if c.Keys == (KeyBindings{}) {
		c.Keys = DefaultKeyBindings()
	}
	if c.Delays == (Delays{}) {
		c.Delays = DefaultDelays()
	}
	if strings.TrimSpace(c.Domain) == "" {
		c.Domain = DefaultConfig().Domain
	}
	c.Preview = c.Preview.withDefaults()
}

// DefaultConfigDir returns ~/.config/mailkeys
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mailkeys")
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// DefaultLogPath returns the default log file path
func DefaultLogPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "mailkeys.log")
}

// DefaultStatsPath returns the default usage counter database path
func DefaultStatsPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "stats.sqlite3")
}

// ResolvePath makes a config-relative path absolute and expands ~
func ResolvePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(DefaultConfigDir(), path)
}

// StatsPath returns the configured stats database path or the default
func (c *Config) StatsPath() string {
	if p := ResolvePath(c.Stats.Path); p != "" {
		return p
	}
	return DefaultStatsPath()
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
