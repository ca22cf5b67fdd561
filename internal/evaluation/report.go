package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText prints one table per report followed by a model comparison.
func WriteText(w io.Writer, reports []*Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range reports {
		fmt.Fprintf(tw, "Model: %s\tRun: %s\n", r.Model, r.RunID)
		fmt.Fprintln(tw, "QUERY\tSTATUS\tAP\tPRECISION\tRECALL\tREL\tRET")
		for _, q := range r.Queries {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%.4f\t%d\t%d\n",
				q.QueryID, q.Status, q.AveragePrecision, q.Precision, q.Recall, q.Relevant, q.Retrieved)
		}
		fmt.Fprintf(tw, "MAP\t%.4f\t(%d evaluated, %d excluded)\n\n", r.MAP, r.Evaluated, r.Excluded)
	}
	if len(reports) > 1 {
		fmt.Fprintln(tw, "MODEL\tMAP\tMEAN P\tMEAN R")
		for _, r := range reports {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", r.Model, r.MAP, r.MeanPrecision, r.MeanRecall)
		}
	}
	return tw.Flush()
}

// WriteJSON writes reports as an indented JSON array.
func WriteJSON(w io.Writer, reports []*Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
