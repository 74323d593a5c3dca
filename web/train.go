package web

import (
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/report"
	"gonum.org/v1/plot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type TrainPage struct {
	*Templates
	net *Network
}

// Base data for handler functions to perform network training and display the stats
func NewTrainPage(t *Templates, net *Network) *TrainPage {
	p := &TrainPage{net: net}
	p.Templates = t.Select("/train")
	p.AddOption(Link{Name: "start", Url: "/train/start"})
	p.AddOption(Link{Name: "stop", Url: "/train/stop"})
	return p
}

// Handler function for the train template
func (p *TrainPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := mux.Vars(r)["cmd"]
		p.net.Lock()
		defer p.net.Unlock()
		switch cmd {
		case "start":
			if err := p.net.Train(); err != nil {
				log.Println("skip start:", err)
			}
			http.Redirect(w, r, "/train/stats", http.StatusFound)
		case "stop":
			p.net.stop = true
			http.Redirect(w, r, "/train/stats", http.StatusFound)
		default:
			p.Heading = p.net.heading()
			p.Exec(w, "train", p)
		}
	}
}

// Handler function for the stats frame
func (p *TrainPage) Stats() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		p.Exec(w, "stats", p)
	}
}

// Handler function for websocket connection
func (p *TrainPage) Websocket() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("websocket upgrade:", err)
			return
		}
		p.net.Lock()
		if p.net.conn != nil {
			p.net.conn.Close()
		}
		p.net.conn = conn
		p.net.Unlock()
	}
}

func (p *TrainPage) Headers() []string {
	return append([]string{"epoch"}, nnet.StatsHeaders(true)...)
}

// LatestStats returns the last n epochs, most recent first.
func (p *TrainPage) LatestStats(n int) []nnet.Stats {
	last := len(p.net.Stats) - 1
	res := []nnet.Stats{}
	for i := last; i >= 0 && i > last-n; i-- {
		res = append(res, p.net.Stats[i])
	}
	return res
}

func (p *TrainPage) RunTime() string {
	return p.net.RunTime()
}

func (p *TrainPage) Score() string {
	if p.net.running || p.net.Score == (nnet.Score{}) {
		return ""
	}
	return "test set: " + p.net.Score.String()
}

func (p *TrainPage) LossPlot(width, height int) template.HTML {
	if len(p.net.Stats) == 0 {
		return ""
	}
	return writePlot(report.LossPlot(p.net.Stats))(width, height)
}

func (p *TrainPage) AccuracyPlot(width, height int) template.HTML {
	if len(p.net.Stats) == 0 {
		return ""
	}
	return writePlot(report.AccuracyPlot(p.net.Stats))(width, height)
}

// ConfusionPage shows the confusion matrix for the test set.
type ConfusionPage struct {
	*Templates
	Error string
	Text  string
	net   *Network
	plot  *plot.Plot
}

func NewConfusionPage(t *Templates, net *Network) *ConfusionPage {
	p := &ConfusionPage{net: net}
	p.Templates = t.Select("/confusion")
	return p
}

// Handler function for the confusion matrix page
func (p *ConfusionPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		p.Heading = p.net.heading()
		p.Error, p.Text, p.plot = "", "", nil
		c, err := p.net.Confusion()
		if err == nil {
			p.Text = c.String()
			p.plot, err = report.ConfusionPlot(c)
		}
		if err != nil {
			p.Error = err.Error()
		}
		p.Exec(w, "confusion", p)
	}
}

func (p *ConfusionPage) Plot(width, height int) template.HTML {
	if p.plot == nil {
		return ""
	}
	return writePlot(p.plot, nil)(width, height)
}

// returns a function to render the plot as inline svg, or the error message
func writePlot(p *plot.Plot, err error) func(w, h int) template.HTML {
	return func(w, h int) template.HTML {
		if err != nil {
			log.Println("plot error:", err)
			return template.HTML(template.HTMLEscapeString(err.Error()))
		}
		svg, err := report.SVG(p, w, h)
		if err != nil {
			log.Println("plot error:", err)
			return ""
		}
		return svg
	}
}
