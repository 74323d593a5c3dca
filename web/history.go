package web

import (
	"math"
	"net/http"
	"sort"
	"sync"

	"github.com/jnb666/mlbench/history"
	"github.com/jnb666/mlbench/stats"
)

// HistoryPage lists the completed runs from the ledger with a summary per model.
type HistoryPage struct {
	*Templates
	Runs    []history.Run
	Summary []Summary
	Error   string
	ledger  *history.DB
	mu      sync.Mutex
}

// Summary has the mean and spread of the test scores over repeated runs of a model.
type Summary struct {
	Model    string
	Loss     *stats.Average
	Accuracy *stats.Average
}

func NewHistoryPage(t *Templates, ledger *history.DB) *HistoryPage {
	p := &HistoryPage{ledger: ledger}
	p.Templates = t.Select("/history")
	return p
}

// Handler function for the history page
func (p *HistoryPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Runs, p.Summary, p.Error = nil, nil, ""
		if p.ledger == nil {
			p.Error = "no history database"
		} else if runs, err := p.ledger.List(r.FormValue("model")); err != nil {
			p.Error = err.Error()
		} else {
			p.Runs = runs
			p.Summary = summarise(runs)
		}
		p.Exec(w, "history", p)
	}
}

func summarise(runs []history.Run) []Summary {
	byModel := map[string]*Summary{}
	for _, r := range runs {
		s, ok := byModel[r.Model]
		if !ok {
			s = &Summary{Model: r.Model, Loss: new(stats.Average), Accuracy: new(stats.Average)}
			byModel[r.Model] = s
		}
		// diverged runs have no scores
		if !math.IsNaN(r.TestLoss) {
			s.Loss.Add(r.TestLoss)
		}
		if !math.IsNaN(r.TestMetric) {
			s.Accuracy.Add(100 * r.TestMetric)
		}
	}
	res := make([]Summary, 0, len(byModel))
	for _, s := range byModel {
		res = append(res, *s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Model < res[j].Model })
	return res
}
