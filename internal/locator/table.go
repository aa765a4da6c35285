package locator

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

//go:embed locators.yaml
var defaultTable []byte

var (
	// ErrUnknownRole is returned for a role the table does not define
	ErrUnknownRole = errors.New("unknown locator role")
	// ErrInvalidSelector is returned when a table selector does not compile
	ErrInvalidSelector = errors.New("invalid selector")
)

// Role is a semantic target the overlay asks the locator for
type Role string

const (
	RoleToolbar    Role = "toolbar"
	RoleDetailView Role = "detail_view"
	RoleCloseView  Role = "close_view"
	RoleArchive    Role = "archive"
	RoleDelete     Role = "delete"
	RoleStar       Role = "star"
	RoleMarkRead   Role = "mark_read"
	RoleMarkUnread Role = "mark_unread"
	RoleLabel      Role = "label"
	RoleReply      Role = "reply"
	RoleReplyAll   Role = "reply_all"
	RoleForward    Role = "forward"
	RoleCompose    Role = "compose"
	RoleSearch     Role = "search"
	RoleNavInbox   Role = "nav_inbox"
	RoleNavStarred Role = "nav_starred"
	RoleNavSent    Role = "nav_sent"
	RoleNavDrafts  Role = "nav_drafts"
	RoleNavAll     Role = "nav_all"
	RoleNavTrash   Role = "nav_trash"
)

// Strategy is the ordered fallback list for one role
type Strategy struct {
	Toolbar   bool     `yaml:"toolbar,omitempty"`
	Selectors []string `yaml:"selectors,omitempty"`
	Icons     []string `yaml:"icons,omitempty"`
	Words     []string `yaml:"words,omitempty"`
}

// Table is the full role -> strategy mapping
type Table struct {
	Clickable      string            `yaml:"clickable"`
	Rows           []string          `yaml:"rows"`
	CheckedMarkers []string          `yaml:"checked_markers"`
	Checkbox       []string          `yaml:"checkbox"`
	Roles          map[Role]Strategy `yaml:"roles"`
}

// DefaultTable returns the embedded table
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable)
}

// ParseTable decodes and validates a YAML table
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode locator table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTable returns the embedded table overlaid with the file at path. Sections and
// roles present in the file replace the embedded ones; everything else is kept.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locator table: %w", err)
	}
	t, err := OverlayTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// OverlayTable returns the embedded table overlaid with the YAML in data
func OverlayTable(data []byte) (*Table, error) {
	base, err := DefaultTable()
	if err != nil {
		return nil, err
	}
	var override Table
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("decode locator table: %w", err)
	}
	base.merge(&override)
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

func (t *Table) merge(o *Table) {
	if o.Clickable != "" {
		t.Clickable = o.Clickable
	}
	if len(o.Rows) > 0 {
		t.Rows = o.Rows
	}
	if len(o.CheckedMarkers) > 0 {
		t.CheckedMarkers = o.CheckedMarkers
	}
	if len(o.Checkbox) > 0 {
		t.Checkbox = o.Checkbox
	}
	if t.Roles == nil {
		t.Roles = map[Role]Strategy{}
	}
	for role, s := range o.Roles {
		t.Roles[role] = s
	}
}

// Validate compiles every selector in the table
func (t *Table) Validate() error {
	check := func(where, sel string) error {
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return fmt.Errorf("%s %q: %w: %v", where, sel, ErrInvalidSelector, err)
		}
		return nil
	}
	if t.Clickable == "" {
		return fmt.Errorf("clickable: %w: empty", ErrInvalidSelector)
	}
	if err := check("clickable", t.Clickable); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return fmt.Errorf("rows: %w: no strategies", ErrInvalidSelector)
	}
	for where, list := range map[string][]string{"rows": t.Rows, "checked_markers": t.CheckedMarkers, "checkbox": t.Checkbox} {
		for _, sel := range list {
			if err := check(where, sel); err != nil {
				return err
			}
		}
	}
	for _, role := range t.RoleNames() {
		s := t.Roles[role]
		for _, sel := range append(append([]string{}, s.Selectors...), s.Icons...) {
			if err := check(string(role), sel); err != nil {
				return err
			}
		}
	}
	return nil
}

// Strategy returns the strategies registered for role
func (t *Table) Strategy(role Role) (Strategy, error) {
	s, ok := t.Roles[role]
	if !ok {
		return Strategy{}, fmt.Errorf("%s: %w", role, ErrUnknownRole)
	}
	return s, nil
}

// RoleNames returns the defined roles in sorted order
func (t *Table) RoleNames() []Role {
	names := make([]Role, 0, len(t.Roles))
	for r := range t.Roles {
		names = append(names, r)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Marshal encodes the table back to YAML
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}
