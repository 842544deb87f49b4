package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
)

// FormatEntry renders one ledger line, e.g. "[1] Black Stone x3 | 200,000 each | 600,000 (600.00K)".
func FormatEntry(e ledger.Entry) string {
	return fmt.Sprintf("[%d] %s x%s | %s each | %s (%s)",
		e.ID,
		e.Name,
		humanize.Comma(int64(e.Amount)),
		humanize.Comma(int64(e.UnitPrice)),
		humanize.Comma(int64(e.Value())),
		e.Value())
}

// FormatHeader summarizes the session relative to now.
func FormatHeader(st tracker.Status, entries []ledger.Entry, now time.Time) string {
	parts := []string{st.Mode.String() + " log", st.State.String()}
	if st.State == tracker.Started && !st.StartedAt.IsZero() {
		parts[1] = "started " + humanize.RelTime(st.StartedAt, now, "ago", "from now")
	}
	if st.Err != "" {
		parts = append(parts, "error: "+st.Err)
	}
	total := Total(entries)
	parts = append(parts,
		fmt.Sprintf("%s items", humanize.Comma(int64(len(entries)))),
		fmt.Sprintf("total %s (%s)", humanize.Comma(int64(total)), total))
	return strings.Join(parts, " | ")
}

func Total(entries []ledger.Entry) loot.Silver {
	var total loot.Silver
	for _, e := range entries {
		total += e.Value()
	}
	return total
}

// WriteTable prints the ledger as aligned columns for terminals without rofi.
func WriteTable(w io.Writer, header string, entries []ledger.Entry) error {
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ITEM\tAMOUNT\tUNIT\tVALUE\tSEEN\t")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%02d:%02d\t\n",
			e.Name,
			humanize.Comma(int64(e.Amount)),
			humanize.Comma(int64(e.UnitPrice)),
			e.Value(),
			e.Hour, e.Minute)
	}
	return tw.Flush()
}
