package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/types"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements Storage by pretty-printing to a writer.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return NewConsoleStorageTo(os.Stdout, logger)
}

// NewConsoleStorageTo creates a console storage writing to out.
func NewConsoleStorageTo(out io.Writer, logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    out,
		logger: logger,
	}
}

// StoreSnapshot prints one line per market.
func (c *ConsoleStorage) StoreSnapshot(_ context.Context, snap *Snapshot) error {
	fmt.Fprintln(c.out, "\n"+rule)
	fmt.Fprintf(c.out, "MARKET SNAPSHOT %s\n", snap.ID.String()[:8])
	fmt.Fprintln(c.out, rule)
	fmt.Fprintf(c.out, "Exchange: %s\n", snap.Exchange)
	fmt.Fprintf(c.out, "Time:     %s\n", snap.TakenAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(c.out, "Markets:  %d\n", len(snap.Markets))
	fmt.Fprintln(c.out, rule)

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MARKET ID\tYES\tNO\tVOLUME 24H\tTITLE")
	for i := range snap.Markets {
		m := &snap.Markets[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.0f\t%s\n",
			m.MarketID,
			formatPrice(m.Yes),
			formatPrice(m.No),
			m.Volume24h,
			truncate(m.Title, 60))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	fmt.Fprintln(c.out, rule)

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

func formatPrice(o *types.MarketOutcome) string {
	if o == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", o.Price)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
