// Package locator maps semantic roles to concrete elements of the host page using
// ordered fallback strategies. A miss is never an error: callers treat nil as
// "feature unavailable".
package locator

import (
	"log"
	"strings"

	"github.com/ajramos/mailkeys/internal/dom"
)

// Service resolves roles against a live document. It never retries or waits;
// callers that need a retry schedule another Locate call.
type Service struct {
	doc    dom.Document
	table  *Table
	logger *log.Logger
}

// New creates a locator over doc. A nil logger keeps it silent.
func New(doc dom.Document, table *Table, logger *log.Logger) *Service {
	return &Service{doc: doc, table: table, logger: logger}
}

// Document returns the document the service searches
func (s *Service) Document() dom.Document { return s.doc }

// Table returns the strategy table in use
func (s *Service) Table() *Table { return s.table }

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Locate returns the first visible, enabled element for role, or nil. Toolbar
// roles search recognized toolbar regions before the whole document; within a
// scope explicit labeling selectors come before icon hints. The word-family text
// scan runs last.
func (s *Service) Locate(role Role) dom.Element {
	strat, err := s.table.Strategy(role)
	if err != nil {
		s.logf("locate: %v", err)
		return nil
	}

	var toolbars []dom.Element
	if strat.Toolbar {
		toolbars = s.Toolbars()
		for _, tb := range toolbars {
			if el := s.bySelectors(tb, strat.Selectors); el != nil {
				return s.found(role, "toolbar selector", el)
			}
			if el := s.byIcons(tb, strat.Icons); el != nil {
				return s.found(role, "toolbar icon", el)
			}
		}
	}
	if el := s.bySelectors(nil, strat.Selectors); el != nil {
		return s.found(role, "selector", el)
	}
	if el := s.byIcons(nil, strat.Icons); el != nil {
		return s.found(role, "icon", el)
	}
	if len(strat.Words) > 0 {
		if el := s.byWords(toolbars, strat.Words); el != nil {
			return s.found(role, "text scan", el)
		}
	}
	s.logf("locate %s: not found", role)
	return nil
}

func (s *Service) found(role Role, how string, el dom.Element) dom.Element {
	s.logf("locate %s: found by %s", role, how)
	return el
}

// Toolbars returns every visible toolbar region, using the first toolbar
// strategy that yields one
func (s *Service) Toolbars() []dom.Element {
	strat, err := s.table.Strategy(RoleToolbar)
	if err != nil {
		return nil
	}
	for _, sel := range strat.Selectors {
		var out []dom.Element
		for _, el := range s.doc.QueryAll(sel) {
			if dom.Visible(el) {
				out = append(out, el)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func (s *Service) queryAll(scope dom.Element, sel string) []dom.Element {
	if scope != nil {
		return scope.QueryAll(sel)
	}
	return s.doc.QueryAll(sel)
}

func (s *Service) bySelectors(scope dom.Element, selectors []string) dom.Element {
	for _, sel := range selectors {
		for _, el := range s.queryAll(scope, sel) {
			if dom.Usable(el) {
				return el
			}
		}
	}
	return nil
}

func (s *Service) byIcons(scope dom.Element, icons []string) dom.Element {
	for _, sel := range icons {
		for _, icon := range s.queryAll(scope, sel) {
			ctl := icon.Closest(s.table.Clickable)
			if ctl == nil {
				continue
			}
			if scope != nil && !scope.Contains(ctl) {
				continue
			}
			if dom.Usable(ctl) {
				return ctl
			}
		}
	}
	return nil
}

// byWords scans clickable controls by visible text and labeling attributes,
// restricted to the toolbars when there are any
func (s *Service) byWords(toolbars []dom.Element, words []string) dom.Element {
	scopes := toolbars
	if len(scopes) == 0 {
		scopes = []dom.Element{nil}
	}
	for _, scope := range scopes {
		for _, ctl := range s.queryAll(scope, s.table.Clickable) {
			if !dom.Usable(ctl) {
				continue
			}
			if matchesWords(ctl, words) {
				return ctl
			}
		}
	}
	return nil
}

func matchesWords(el dom.Element, words []string) bool {
	hay := []string{strings.ToLower(el.Text())}
	for _, a := range []string{"title", "aria-label", "data-testid"} {
		if v, ok := el.Attr(a); ok {
			hay = append(hay, strings.ToLower(v))
		}
	}
	joined := strings.Join(hay, " ")
	for _, w := range words {
		if w != "" && strings.Contains(joined, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
