// Package report formats benchmark results as console tables and plots.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jnb666/mlbench/estimator"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/stats"
)

// Table prints the train and test mean squared error for each model rounded to 3 decimals.
func Table(w io.Writer, results []estimator.Result) {
	width := len("model")
	for _, r := range results {
		if len(r.Name) > width {
			width = len(r.Name)
		}
	}
	fmt.Fprintf(w, "%-*s  %10s  %10s  %10s\n", width, "model", "train MSE", "test MSE", "time")
	fmt.Fprintln(w, strings.Repeat("-", width+38))
	for _, r := range results {
		fmt.Fprintf(w, "%-*s  %10.3f  %10.3f  %10s\n", width, r.Name, r.TrainMSE, r.TestMSE, r.Elapsed.Round(time.Millisecond))
	}
}

// PrintConfusion prints the confusion matrix with true classes down and predictions across.
func PrintConfusion(w io.Writer, c *stats.Confusion) {
	fmt.Fprintln(w, c)
	fmt.Fprintf(w, "accuracy = %.2f%% (%d of %d)\n", 100*c.Accuracy(), c.Trace(), c.Total())
}

// PrintHistory prints one line per epoch.
func PrintHistory(w io.Writer, h nnet.History, metric bool) {
	hdr := nnet.StatsHeaders(metric)
	fmt.Fprintf(w, "%5s", "epoch")
	for _, s := range hdr {
		fmt.Fprintf(w, "  %10s", s)
	}
	fmt.Fprintln(w)
	for _, s := range h {
		fmt.Fprintf(w, "%5d", s.Epoch)
		for _, v := range s.Format(metric) {
			fmt.Fprintf(w, "  %10s", v)
		}
		fmt.Fprintln(w)
	}
}
