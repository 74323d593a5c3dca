package web

import (
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jnb666/mlbench/img"
)

type ImagePage struct {
	*Templates
	Filter string
	Page   int
	Rows   []int
	Cols   []int
	Width  int
	Height int
	Pages  int
	Total  int
	net    *Network
}

// Base data for handler functions to view the test images and predictions
func NewImagePage(t *Templates, net *Network, scale float64, rows, cols int) *ImagePage {
	p := &ImagePage{net: net, Templates: t, Page: 1}
	p.AddOption(Link{Name: "all", Url: "/images/all/1"})
	p.AddOption(Link{Name: "errors", Url: "/images/errors/1"})
	d := net.Data.Test
	p.Width = int(float64(d.Width) * scale)
	p.Height = int(float64(d.Height) * scale)
	p.Rows = seq(rows)
	p.Cols = seq(cols)
	return p
}

// Handler function which redirects to the last filter selected in this session
func (p *ImagePage) Last() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := "all"
		if session, err := p.store.Get(r, sessionName); err == nil {
			if f, ok := session.Values["filter"].(string); ok {
				filter = f
			}
		}
		http.Redirect(w, r, "/images/"+filter+"/1", http.StatusFound)
	}
}

// Handler function for the main image page
func (p *ImagePage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if session, err := p.store.Get(r, sessionName); err == nil {
			session.Values["filter"] = vars["filter"]
			if err = session.Save(r, w); err != nil {
				log.Println("session save:", err)
			}
		}
		p.net.Lock()
		defer p.net.Unlock()
		p.Filter = vars["filter"]
		p.Page, _ = strconv.Atoi(vars["page"])
		p.Total, p.Pages = p.pageCount()
		if p.Page > p.Pages || p.Page < 1 {
			p.Page = 1
		}
		p.Select("/images")
		p.SelectOptions([]string{p.Filter})
		p.Heading = p.net.heading()
		p.Exec(w, "images", p)
	}
}

func (p *ImagePage) PrevUrl() string {
	return fmt.Sprintf("/images/%s/%d", p.Filter, mod(p.Page-1, 1, p.Pages))
}

func (p *ImagePage) NextUrl() string {
	return fmt.Sprintf("/images/%s/%d", p.Filter, mod(p.Page+1, 1, p.Pages))
}

func (p *ImagePage) pageCount() (nimg, pages int) {
	for i := range p.net.Data.Test.Labels {
		if p.showImage(i) {
			nimg++
		}
	}
	rows, cols := len(p.Rows), len(p.Cols)
	pages = nimg / (rows * cols)
	if nimg%(rows*cols) != 0 {
		pages++
	}
	return nimg, pages
}

func (p *ImagePage) showImage(i int) bool {
	if p.Filter != "errors" {
		return true
	}
	pred := p.net.Pred
	return pred != nil && pred[i] != p.net.Data.Test.Labels[i]
}

// Index returns the image id for the grid cell, or 0 if the cell is empty.
func (p *ImagePage) Index(row, col int) int {
	rows, cols := len(p.Rows), len(p.Cols)
	index := (p.Page-1)*rows*cols + row*cols + col
	for i := range p.net.Data.Test.Labels {
		if p.showImage(i) {
			index--
			if index < 0 {
				return i + 1
			}
		}
	}
	return 0
}

func (p *ImagePage) label(i int) int {
	lab := p.net.Data.Test.Labels
	if i < 1 || i > len(lab) {
		return -1
	}
	return int(lab[i-1])
}

func (p *ImagePage) predict(i int) int {
	pred := p.net.Pred
	if pred == nil || i < 1 || i > len(pred) {
		return -1
	}
	return int(pred[i-1])
}

func (p *ImagePage) Label(i int) string {
	lab := p.label(i)
	text := strconv.Itoa(lab)
	if pred := p.predict(i); pred >= 0 && pred != lab {
		text += fmt.Sprintf(" => %d", pred)
	}
	return text
}

// Handler function for the image data
func (p *ImagePage) Image() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		id, _ := strconv.Atoi(mux.Vars(r)["id"])
		d := p.net.Data.Test
		if id < 1 || id > d.Len() {
			http.NotFound(w, r)
			return
		}
		image := d.Thumbnail(id-1, int32(p.predict(id)))
		w.Header().Set("Content-type", "image/png")
		if err := png.Encode(w, img.Scale(image, 2)); err != nil {
			log.Println("png encode:", err)
		}
	}
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func mod(i, min, max int) int {
	if i < min {
		i = max
	}
	if i > max {
		i = min
	}
	return i
}
