package web

import (
	"image/png"
	"log"
	"net/http"
)

// ViewPage shows the input weights of the first layer of hidden units, updated each epoch.
type ViewPage struct {
	*Templates
	net *Network
}

func NewViewPage(t *Templates, net *Network) *ViewPage {
	p := &ViewPage{net: net}
	p.Templates = t.Select("/view")
	return p
}

// Handler function for the main view page
func (p *ViewPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		p.Heading = p.net.heading()
		p.Exec(w, "view", p)
	}
}

// Epoch is used to make the image url unique so the browser reloads it.
func (p *ViewPage) Epoch() int {
	return p.net.Epoch
}

func (p *ViewPage) HasWeights() bool {
	return p.net.weights != nil
}

// Handler function to generate the weights image
func (p *ViewPage) Image() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		if p.net.weights == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-type", "image/png")
		if err := png.Encode(w, p.net.weights); err != nil {
			log.Println("png encode:", err)
		}
	}
}
