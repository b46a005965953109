package probe

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
)

var (
	passColor = color.New(color.FgGreen, color.Bold).SprintfFunc()
	failColor = color.New(color.FgRed, color.Bold).SprintfFunc()
	kindColor = color.New(color.FgCyan).SprintfFunc()
	dimColor  = color.New(color.Faint).SprintfFunc()
)

// Summarize fills the pass/fail and outcome counters from r.Checks.
func (r *Report) Summarize() {
	r.Passed, r.Failed = 0, 0
	r.Outcomes = make(map[string]int)
	for _, c := range r.Checks {
		if c.Passed() {
			r.Passed++
		} else {
			r.Failed++
		}
		r.Outcomes[c.Kind+"/"+c.Want.Code]++
	}
}

// Print writes a coloured report to w. Passing checks are listed only when
// verbose is set.
func (r *Report) Print(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "%s %s\n", dimColor("match"), r.MatchID)
	if r.Duplicate {
		fmt.Fprintf(w, "%s\n", dimColor("(already imported)"))
	}
	fmt.Fprintf(w, "%s %d  %s %d  %s %s\n",
		dimColor("stamps"), r.Stamps, dimColor("max offset"), r.MaxOffset, dimColor("digest"), r.Digest)

	for _, c := range r.Checks {
		if c.Passed() && !verbose {
			continue
		}
		status := passColor("PASS")
		detail := c.Got.String()
		if !c.Passed() {
			status = failColor("FAIL")
			if c.Err != nil {
				detail = c.Err.Error()
			} else {
				detail = fmt.Sprintf("want %s got %s", c.Want, c.Got)
			}
		}
		fmt.Fprintf(w, "  %s %-14s %8d  %s\n", status, kindColor(c.Kind), c.Offset, detail)
	}

	keys := make([]string, 0, len(r.Outcomes))
	for k := range r.Outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-36s %d\n", kindColor(k), r.Outcomes[k])
	}

	verdict := passColor("%d passed", r.Passed)
	if r.Failed > 0 {
		verdict += ", " + failColor("%d failed", r.Failed)
	}
	fmt.Fprintf(w, "%s in %s\n", verdict, r.Duration.Round(time.Millisecond))
}
