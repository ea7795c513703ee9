package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/montrey/ftpseek/search"
	"github.com/montrey/ftpseek/store"
)

// printResult writes the outcome of a search. A found path goes on its own
// line so scripts can read it.
func printResult(w io.Writer, filename string, res search.Result) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	if res.Outcome == search.Found {
		green.Fprintln(w, res.Path)
		dim.Fprintf(w, "found %s at depth %d after %d listings\n", filename, res.Depth, res.Listings)
		return
	}

	yellow.Fprintf(w, "%s %s", filename, res.Outcome)
	fmt.Fprintf(w, " (%d listings)\n", res.Listings)
	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, "Similar files seen:")
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
}

func printSearches(w io.Writer, records []store.SearchRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No searches recorded yet.")
		return
	}
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	cyan.Fprintln(w, "Recent searches:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, rec := range records {
		outcome := red.Sprint(rec.Outcome)
		if rec.Outcome == search.Found.String() {
			outcome = green.Sprint(rec.Outcome)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			rec.SearchedAt.Local().Format("2006-01-02 15:04"), rec.Host, rec.Filename, outcome, rec.Path)
	}
	tw.Flush()
}

func printLocations(w io.Writer, filename string, locations []store.Location) {
	if len(locations) == 0 {
		fmt.Fprintf(w, "No known locations for %s.\n", filename)
		return
	}
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "Known locations of %s:\n", filename)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, loc := range locations {
		fmt.Fprintf(tw, "  %s\t%s\t%dx\tlast %s\n",
			loc.Host, loc.Path, loc.Frequency, loc.LastFound.Local().Format("2006-01-02"))
	}
	tw.Flush()
}

func printProfiles(w io.Writer, profiles []store.Profile, def string) {
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles saved.")
		return
	}
	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range profiles {
		marker := " "
		name := p.Name
		if p.Name == def {
			marker = "*"
			name = bold.Sprint(p.Name)
		}
		tls := ""
		if p.TLS {
			tls = "tls"
		}
		fmt.Fprintf(tw, "%s %s\t%s@%s:%d\t%s\n", marker, name, p.User, p.Host, p.Port, tls)
	}
	tw.Flush()
}
