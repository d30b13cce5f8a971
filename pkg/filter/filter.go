package filter

import (
	"slices"
	"strings"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// fieldPriority is the order in which fields are scanned. A record counts
// once, at the first field that matches.
//
//nolint:gochecknoglobals // read-only lookup table
var fieldPriority = []SearchField{
	FieldTitle,
	FieldDescription,
	FieldCategory,
	FieldTags,
	FieldOutcomes,
}

// Markets returns the markets accepted by c, in input order.
// A nil c keeps every market. The input slice is never modified.
func Markets(markets []types.UnifiedMarket, c MarketCriteria) []types.UnifiedMarket {
	out := make([]types.UnifiedMarket, 0, len(markets))
	for i := range markets {
		if c == nil || c.keepMarket(&markets[i]) {
			out = append(out, markets[i])
		}
	}
	return out
}

// Events returns the events accepted by c, in input order.
func Events(events []types.UnifiedEvent, c EventCriteria) []types.UnifiedEvent {
	out := make([]types.UnifiedEvent, 0, len(events))
	for i := range events {
		if c == nil || c.keepEvent(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

func marketHasText(m *types.UnifiedMarket, query string, searchIn []SearchField) bool {
	_, ok := marketMatchField(m, strings.ToLower(query), searchIn)
	return ok
}

func eventHasText(e *types.UnifiedEvent, query string, searchIn []SearchField) bool {
	_, ok := eventMatchField(e, strings.ToLower(query), searchIn)
	return ok
}

// marketMatchField returns the first field, by priority, that contains the
// already lowercased query.
func marketMatchField(m *types.UnifiedMarket, lowerQuery string, searchIn []SearchField) (SearchField, bool) {
	scope := normalizeScope(searchIn)
	for _, field := range fieldPriority {
		if !slices.Contains(scope, field) {
			continue
		}
		var hit bool
		switch field {
		case FieldTitle:
			hit = containsLower(m.Title, lowerQuery)
		case FieldDescription:
			hit = containsLower(m.Description, lowerQuery)
		case FieldCategory:
			hit = containsLower(m.Category, lowerQuery)
		case FieldTags:
			hit = slices.ContainsFunc(m.Tags, func(tag string) bool {
				return containsLower(tag, lowerQuery)
			})
		case FieldOutcomes:
			hit = slices.ContainsFunc(m.Outcomes, func(o types.MarketOutcome) bool {
				return containsLower(o.Label, lowerQuery)
			})
		}
		if hit {
			return field, true
		}
	}
	return "", false
}

func eventMatchField(e *types.UnifiedEvent, lowerQuery string, searchIn []SearchField) (SearchField, bool) {
	scope := normalizeScope(searchIn)
	for _, field := range fieldPriority {
		if !slices.Contains(scope, field) {
			continue
		}
		var hit bool
		switch field {
		case FieldTitle:
			hit = containsLower(e.Title, lowerQuery)
		case FieldDescription:
			hit = containsLower(e.Description, lowerQuery)
		case FieldCategory:
			hit = containsLower(e.Category, lowerQuery)
		case FieldTags:
			hit = slices.ContainsFunc(e.Tags, func(tag string) bool {
				return containsLower(tag, lowerQuery)
			})
		case FieldOutcomes:
			// events carry no outcomes
		}
		if hit {
			return field, true
		}
	}
	return "", false
}

func normalizeScope(searchIn []SearchField) []SearchField {
	if len(searchIn) == 0 {
		return []SearchField{FieldTitle}
	}
	return searchIn
}

// anyTag reports whether any wanted tag equals any record tag, ignoring case.
func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return containsLower(s, strings.ToLower(substr))
}

// containsLower matches an empty s against nothing, so records missing the
// field never match.
func containsLower(s, lowerSubstr string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), lowerSubstr)
}
