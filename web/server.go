package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jnb666/mlbench/history"
)

// Image grid layout
const (
	Scale = 3
	Rows  = 8
	Cols  = 10
)

// NewRouter sets up the page handlers for the network. ledger may be nil.
func NewRouter(t *Templates, net *Network, ledger *history.DB) *mux.Router {
	trainPage := NewTrainPage(t.Clone(), net)
	confusionPage := NewConfusionPage(t.Clone(), net)
	imagePage := NewImagePage(t.Clone(), net, Scale, Rows, Cols)
	viewPage := NewViewPage(t.Clone(), net)
	historyPage := NewHistoryPage(t.Clone(), ledger)
	configPage := NewConfigPage(t.Clone(), net)

	r := mux.NewRouter()
	r.Handle("/", http.RedirectHandler("/train/stats", http.StatusFound))

	r.Handle("/train", http.RedirectHandler("/train/stats", http.StatusFound))
	r.HandleFunc("/train/{cmd:(?:stats|start|stop)}", trainPage.Base())
	r.HandleFunc("/stats", trainPage.Stats())
	r.HandleFunc("/ws", trainPage.Websocket())
	r.HandleFunc("/confusion", confusionPage.Base())

	r.HandleFunc("/images", imagePage.Last())
	r.HandleFunc("/images/{filter:(?:all|errors)}/{page:[0-9]+}", imagePage.Base())
	r.HandleFunc("/img/{id:[0-9]+}", imagePage.Image())

	r.HandleFunc("/view", viewPage.Base())
	r.HandleFunc("/view/weights.png", viewPage.Image())

	r.HandleFunc("/history", historyPage.Base())

	r.HandleFunc("/config", configPage.Base())
	r.HandleFunc("/config/load", configPage.Load())
	r.HandleFunc("/config/save", configPage.Save()).Methods("POST")
	r.HandleFunc("/config/reset", configPage.Reset())
	return r
}
