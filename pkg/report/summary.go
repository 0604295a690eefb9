package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/quidome/focalstats/pkg/aggregate"
	"github.com/quidome/focalstats/pkg/meta"
)

// GroupTopK is the number of bins listed per camera and per lens.
const GroupTopK = 5

// NoData is printed when no record carries a value for the view's metric.
const NoData = "No data to summarize."

// Summary prints the k most populated bins of the view with their share of
// the total, followed by the top bins per camera and per lens.
func Summary(w io.Writer, records []meta.Record, view aggregate.View, k int) error {
	bw := bufio.NewWriter(w)

	values := view.Values(records)
	if len(values) == 0 {
		fmt.Fprintln(bw, NoData)
		return bw.Flush()
	}

	total := aggregate.NewDistribution(values, view.Width()).Total()

	fmt.Fprintf(bw, "=== %s ===\n", view.Title())
	for _, b := range aggregate.Top(values, view.Width(), k) {
		fmt.Fprintf(bw, "%10s : %6d  (%5.1f%%)\n", view.Label(b.Value), b.Count, aggregate.Percent(b.Count, total))
	}
	fmt.Fprintf(bw, "Total: %d\n", total)

	writeGroups(bw, "camera", view, view.TopK(records, aggregate.ByModel, GroupTopK))
	writeGroups(bw, "lens", view, view.TopK(records, aggregate.ByLens, GroupTopK))

	return bw.Flush()
}

func writeGroups(w io.Writer, kind string, view aggregate.View, groups map[string]aggregate.Distribution) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(w, "\n=== Top %d per %s ===\n", GroupTopK, kind)
	for _, name := range aggregate.Groups(groups) {
		bins := make([]string, 0, len(groups[name]))
		for _, b := range groups[name] {
			bins = append(bins, fmt.Sprintf("%s x%d", view.Label(b.Value), b.Count))
		}
		fmt.Fprintf(w, "- %s: %s\n", name, strings.Join(bins, ", "))
	}
}
