package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/types"
)

func filterCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("query", "q", "", "")
	cmd.Flags().IntP("limit", "l", 50, "")
	cmd.Flags().StringP("sort", "s", "volume", "")
	cmd.Flags().String("status", "active", "")
	addMarketFilterFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestMarketQueryFromFlags_NoneSet(t *testing.T) {
	q, err := marketQueryFromFlags(filterCommand(t))
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestMarketQueryFromFlags(t *testing.T) {
	cmd := filterCommand(t,
		"--text", "trump",
		"--search-in", "title,Tags",
		"--category", "Politics",
		"--min-volume24h", "1000",
		"--max-volume24h", "5000",
		"--min-liquidity", "0",
		"--resolves-before", "2026-12-31",
		"--price-outcome", "no",
		"--max-price", "0.4",
	)

	q, err := marketQueryFromFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, q)

	require.NotNil(t, q.Text)
	assert.Equal(t, "trump", *q.Text)
	assert.Equal(t, []filter.SearchField{filter.FieldTitle, filter.FieldTags}, q.SearchIn)
	assert.Equal(t, "Politics", q.Category)

	require.NotNil(t, q.Volume24h)
	assert.Equal(t, 1000.0, *q.Volume24h.Min)
	assert.Equal(t, 5000.0, *q.Volume24h.Max)

	require.NotNil(t, q.Liquidity, "an explicit zero is still a bound")
	assert.Equal(t, 0.0, *q.Liquidity.Min)
	assert.Nil(t, q.Liquidity.Max)
	assert.Nil(t, q.Volume)
	assert.Nil(t, q.OpenInterest)

	require.NotNil(t, q.ResolutionDate)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), q.ResolutionDate.Before)
	assert.True(t, q.ResolutionDate.After.IsZero())

	require.NotNil(t, q.Price)
	assert.Equal(t, types.OutcomeNo, q.Price.Outcome)
	assert.Nil(t, q.Price.Min)
	assert.Equal(t, 0.4, *q.Price.Max)
	assert.Nil(t, q.PriceChange24h)
}

func TestMarketQueryFromFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad_search_field", args: []string{"--text", "x", "--search-in", "body"}},
		{name: "bad_outcome", args: []string{"--price-outcome", "maybe"}},
		{name: "bad_date", args: []string{"--resolves-after", "next week"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := marketQueryFromFlags(filterCommand(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestMarketParamsFromFlags(t *testing.T) {
	params, err := marketParamsFromFlags(filterCommand(t, "-q", "election", "-l", "20", "--sort", "newest"))
	require.NoError(t, err)
	assert.Equal(t, "election", params.Query)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, "newest", params.Sort)
	assert.Equal(t, "active", params.Status)

	_, err = marketParamsFromFlags(filterCommand(t, "--sort", "random"))
	assert.Error(t, err)
	_, err = marketParamsFromFlags(filterCommand(t, "--status", "pending"))
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-03-01T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), got)

	got, err = parseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDate("03/01/2026")
	assert.Error(t, err)
}
