package filter

import (
	"strings"
	"unicode/utf8"

	"github.com/mselser95/pmxt-go/pkg/types"
)

const maxLabelRunes = 70

// MatchMarket returns the single market whose searched fields contain
// query. Zero hits yield *types.NotFoundError and several hits yield
// *types.AmbiguousMatchError listing every matching title. There is no
// ranking: the caller must refine an ambiguous query.
func MatchMarket(markets []types.UnifiedMarket, query string, searchIn ...SearchField) (*types.UnifiedMarket, error) {
	lowerQuery := strings.ToLower(query)

	var matches []int
	for i := range markets {
		if _, ok := marketMatchField(&markets[i], lowerQuery, searchIn); ok {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &types.NotFoundError{Kind: "markets", Query: query}
	case 1:
		m := markets[matches[0]]
		return &m, nil
	default:
		labels := make([]string, len(matches))
		for i, idx := range matches {
			labels[i] = truncateLabel(markets[idx].Title)
		}
		return nil, &types.AmbiguousMatchError{Kind: "markets", Query: query, Labels: labels}
	}
}

// MatchEvent is MatchMarket for events.
func MatchEvent(events []types.UnifiedEvent, query string, searchIn ...SearchField) (*types.UnifiedEvent, error) {
	lowerQuery := strings.ToLower(query)

	var matches []int
	for i := range events {
		if _, ok := eventMatchField(&events[i], lowerQuery, searchIn); ok {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &types.NotFoundError{Kind: "events", Query: query}
	case 1:
		e := events[matches[0]]
		return &e, nil
	default:
		labels := make([]string, len(matches))
		for i, idx := range matches {
			labels[i] = truncateLabel(events[idx].Title)
		}
		return nil, &types.AmbiguousMatchError{Kind: "events", Query: query, Labels: labels}
	}
}

func truncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelRunes {
		return s
	}
	return string([]rune(s)[:maxLabelRunes]) + "..."
}
