package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/types"
)

// addMarketFilterFlags registers the local filter flags shared by
// list-markets and snapshot-markets.
func addMarketFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("text", "", "Keep markets containing this text (local, case-insensitive)")
	f.StringSlice("search-in", nil, "Fields searched by --text: title, description, category, tags, outcomes")
	f.String("category", "", "Keep markets in this category (exact)")
	f.StringSlice("tags", nil, "Keep markets with any of these tags")
	f.Float64("min-volume24h", 0, "Minimum 24h volume")
	f.Float64("max-volume24h", 0, "Maximum 24h volume")
	f.Float64("min-volume", 0, "Minimum total volume")
	f.Float64("min-liquidity", 0, "Minimum liquidity")
	f.Float64("min-open-interest", 0, "Minimum open interest")
	f.String("resolves-before", "", "Keep markets resolving before this date (YYYY-MM-DD or RFC3339)")
	f.String("resolves-after", "", "Keep markets resolving after this date (YYYY-MM-DD or RFC3339)")
	f.String("price-outcome", "yes", "Outcome used by the price flags: yes, no, up, down")
	f.Float64("min-price", 0, "Minimum outcome price")
	f.Float64("max-price", 0, "Maximum outcome price")
	f.Float64("min-price-change", 0, "Minimum outcome 24h price change")
	f.Float64("max-price-change", 0, "Maximum outcome 24h price change")
}

// marketQueryFromFlags builds a filter from the flags that were set. It
// returns nil when no filter flag was given.
func marketQueryFromFlags(cmd *cobra.Command) (*filter.MarketQuery, error) {
	f := cmd.Flags()
	q := &filter.MarketQuery{}
	set := false

	if f.Changed("text") {
		text, _ := f.GetString("text")
		q.Text, set = filter.Substring(text), true
	}
	if fields, _ := f.GetStringSlice("search-in"); len(fields) > 0 {
		parsed, err := parseSearchFields(fields)
		if err != nil {
			return nil, err
		}
		q.SearchIn = parsed
	}
	if category, _ := f.GetString("category"); category != "" {
		q.Category, set = category, true
	}
	if tags, _ := f.GetStringSlice("tags"); len(tags) > 0 {
		q.Tags, set = tags, true
	}

	ranges := []struct {
		min, max string
		dst      **filter.Range
	}{
		{min: "min-volume24h", max: "max-volume24h", dst: &q.Volume24h},
		{min: "min-volume", dst: &q.Volume},
		{min: "min-liquidity", dst: &q.Liquidity},
		{min: "min-open-interest", dst: &q.OpenInterest},
	}
	for _, r := range ranges {
		if rng := rangeFromFlags(cmd, r.min, r.max); rng != nil {
			*r.dst, set = rng, true
		}
	}

	dates, err := dateRangeFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	if dates != nil {
		q.ResolutionDate, set = dates, true
	}

	outcomeName, _ := f.GetString("price-outcome")
	outcome, ok := types.ParseOutcomeSide(outcomeName)
	if !ok {
		return nil, fmt.Errorf("invalid --price-outcome %q: use yes, no, up or down", outcomeName)
	}
	if rng := rangeFromFlags(cmd, "min-price", "max-price"); rng != nil {
		q.Price, set = &filter.OutcomeRange{Outcome: outcome, Range: *rng}, true
	}
	if rng := rangeFromFlags(cmd, "min-price-change", "max-price-change"); rng != nil {
		q.PriceChange24h, set = &filter.OutcomeRange{Outcome: outcome, Range: *rng}, true
	}

	if !set {
		return nil, nil
	}
	return q, nil
}

// rangeFromFlags reads an optional bound pair. An empty max name means the
// range has no upper flag.
func rangeFromFlags(cmd *cobra.Command, minName, maxName string) *filter.Range {
	f := cmd.Flags()
	var r filter.Range
	if f.Changed(minName) {
		v, _ := f.GetFloat64(minName)
		r.Min = &v
	}
	if maxName != "" && f.Changed(maxName) {
		v, _ := f.GetFloat64(maxName)
		r.Max = &v
	}
	if r.Min == nil && r.Max == nil {
		return nil
	}
	return &r
}

func dateRangeFromFlags(cmd *cobra.Command) (*filter.DateRange, error) {
	before, _ := cmd.Flags().GetString("resolves-before")
	after, _ := cmd.Flags().GetString("resolves-after")
	if before == "" && after == "" {
		return nil, nil
	}

	var d filter.DateRange
	var err error
	if before != "" {
		if d.Before, err = parseDate(before); err != nil {
			return nil, fmt.Errorf("invalid --resolves-before: %w", err)
		}
	}
	if after != "" {
		if d.After, err = parseDate(after); err != nil {
			return nil, fmt.Errorf("invalid --resolves-after: %w", err)
		}
	}
	return &d, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD or RFC3339", s)
}

func parseSearchFields(raw []string) ([]filter.SearchField, error) {
	out := make([]filter.SearchField, 0, len(raw))
	for _, r := range raw {
		field := filter.SearchField(strings.ToLower(strings.TrimSpace(r)))
		switch field {
		case filter.FieldTitle, filter.FieldDescription, filter.FieldCategory, filter.FieldTags, filter.FieldOutcomes:
			out = append(out, field)
		default:
			return nil, fmt.Errorf("invalid search field %q", r)
		}
	}
	return out, nil
}
