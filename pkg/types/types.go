// Package domain defines the core business types for the Fundgrube watcher.
package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Rule is a user-configured search term with a price ceiling.
type Rule struct {
	Term     string  `json:"term"      yaml:"term"`
	MaxPrice float64 `json:"max_price" yaml:"max_price"`
}

// String implements fmt.Stringer.
func (r Rule) String() string {
	return fmt.Sprintf("%q <= %.2f", r.Term, r.MaxPrice)
}

// Matches reports whether the item's title contains the rule's term
// (case-insensitive) and its price does not exceed the rule's ceiling.
func (r Rule) Matches(it *Item) bool {
	if it.Price > r.MaxPrice {
		return false
	}
	return strings.Contains(strings.ToLower(it.Title), strings.ToLower(r.Term))
}

// Item is a single Fundgrube posting.
type Item struct {
	ID              string  `json:"id"`
	PimID           string  `json:"pim_id"`
	Title           string  `json:"title"`
	Text            string  `json:"text,omitempty"`
	Price           float64 `json:"price"`
	ShippingCost    float64 `json:"shipping_cost"`
	DiscountPercent float64 `json:"discount_in_percent"`
	OriginalURL     string  `json:"original_url,omitempty"`

	// Store is the configured store name the item was fetched from.
	Store string `json:"store"`
	// StoreURL is the Fundgrube base URL of that store.
	StoreURL   string `json:"store_url"`
	OutletID   string `json:"outlet_id,omitempty"`
	OutletName string `json:"outlet_name,omitempty"`
}

// DirectURL returns the Fundgrube page that shows this posting.
func (it *Item) DirectURL() string {
	params := url.Values{}
	if it.OutletID != "" {
		params.Set("outletIds", it.OutletID)
	}
	params.Set("text", it.PimID)
	return it.StoreURL + "?" + params.Encode()
}

// String implements fmt.Stringer.
func (it *Item) String() string {
	return fmt.Sprintf("%s - %.2f (\U0001F4E6 %.2f) (%.0f %%)",
		it.Title, it.Price, it.ShippingCost, it.DiscountPercent)
}

// Match is an item together with every rule it satisfied.
type Match struct {
	Item  Item   `json:"item"`
	Rules []Rule `json:"rules"`
}

// Terms returns the search terms of the matched rules.
func (m *Match) Terms() []string {
	terms := make([]string, 0, len(m.Rules))
	for _, r := range m.Rules {
		terms = append(terms, r.Term)
	}
	return terms
}

// MatchItem evaluates it against every rule. The returned Match lists the
// satisfied rules in configuration order.
func MatchItem(it *Item, rules []Rule) (Match, bool) {
	var hit []Rule
	for _, r := range rules {
		if r.Matches(it) {
			hit = append(hit, r)
		}
	}
	if len(hit) == 0 {
		return Match{}, false
	}
	return Match{Item: *it, Rules: hit}, true
}

// MatchItems returns one Match per item that satisfies at least one rule,
// preserving item order.
func MatchItems(items []Item, rules []Rule) []Match {
	var matches []Match
	for i := range items {
		if m, ok := MatchItem(&items[i], rules); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

// SeenEntry is one persisted record of a notified item.
type SeenEntry struct {
	ID     string    `json:"id"      db:"item_id"`
	Title  string    `json:"title"   db:"title"`
	Price  float64   `json:"price"   db:"price"`
	URL    string    `json:"url"     db:"url"`
	SeenAt time.Time `json:"seen_at" db:"seen_at"`
}

// SeenSet holds the identifiers of items that were already notified, mapped
// to the time they were first recorded.
type SeenSet map[string]time.Time

// NewSeenSet returns an empty SeenSet.
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Contains reports whether id has been seen.
func (s SeenSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Add records id as seen at t. An existing entry keeps its original time.
func (s SeenSet) Add(id string, t time.Time) {
	if _, ok := s[id]; ok {
		return
	}
	s[id] = t
}

// Len returns the number of seen identifiers.
func (s SeenSet) Len() int {
	return len(s)
}

// FilterNew returns the matches whose item id is not in the set. Duplicate
// ids within matches are collapsed to their first occurrence.
func (s SeenSet) FilterNew(matches []Match) []Match {
	fresh := make([]Match, 0, len(matches))
	taken := make(map[string]struct{}, len(matches))
	for i := range matches {
		id := matches[i].Item.ID
		if s.Contains(id) {
			continue
		}
		if _, dup := taken[id]; dup {
			continue
		}
		taken[id] = struct{}{}
		fresh = append(fresh, matches[i])
	}
	return fresh
}

// EntryFromMatch builds the persisted record for a notified match.
func EntryFromMatch(m *Match, seenAt time.Time) SeenEntry {
	return SeenEntry{
		ID:     m.Item.ID,
		Title:  m.Item.Title,
		Price:  m.Item.Price,
		URL:    m.Item.DirectURL(),
		SeenAt: seenAt,
	}
}
