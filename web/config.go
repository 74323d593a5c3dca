package web

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jnb666/mlbench/nnet"
)

type ConfigPage struct {
	*Templates
	Fields []Field
	Layers []Layer
	Error  string
	net    *Network
}

type Field struct {
	Name    string
	Value   string
	Error   string
	Boolean bool
	On      bool
}

type Layer struct {
	Index int
	Desc  string
}

// Base data for handler functions to view and update the network config
func NewConfigPage(t *Templates, net *Network) *ConfigPage {
	p := &ConfigPage{net: net}
	p.Templates = t.Select("/config")
	p.AddOption(Link{Name: "save", Url: "/config/save", Submit: true})
	p.AddOption(Link{Name: "reset", Url: "/config/reset"})
	p.Fields = getFields(&net.Conf)
	p.Layers = getLayers(&net.Conf)
	return p
}

// Handler function for the config template
func (p *ConfigPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		p.Heading = p.heading()
		p.Exec(w, "config", p)
	}
}

// Handler function for the action to load a new model
func (p *ConfigPage) Load() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		model := r.FormValue("model")
		log.Println("load model:", model)
		conf, err := nnet.LoadConfig(model + ".net")
		if err != nil {
			logError(w, err)
			return
		}
		p.update(model, conf)
		http.Redirect(w, r, "/config", http.StatusFound)
	}
}

// Handler function for the config form save action
func (p *ConfigPage) Save() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		if err := r.ParseForm(); err != nil {
			logError(w, err)
			return
		}
		haveErrors := false
		conf := p.net.Conf
		for i, fld := range p.Fields {
			val := r.Form.Get(fld.Name)
			var err error
			if fld.Boolean {
				p.Fields[i].On = (val == "true")
				conf, err = conf.SetBool(fld.Name, p.Fields[i].On)
			} else {
				p.Fields[i].Value = val
				conf, err = conf.SetString(fld.Name, val)
			}
			p.Fields[i].Error = ""
			if err != nil {
				p.Fields[i].Error = "invalid syntax"
				haveErrors = true
			}
		}
		if !haveErrors {
			if err := conf.Save(p.net.Model + ".net"); err != nil {
				logError(w, err)
				return
			}
			p.update(p.net.Model, conf)
		}
		http.Redirect(w, r, "/config", http.StatusFound)
	}
}

// Handler function to restore the default settings
func (p *ConfigPage) Reset() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		conf, err := nnet.LoadConfig(p.net.Model + ".default")
		if err != nil {
			logError(w, err)
			return
		}
		if err = conf.Save(p.net.Model + ".net"); err != nil {
			logError(w, err)
			return
		}
		p.update(p.net.Model, conf)
		http.Redirect(w, r, "/config", http.StatusFound)
	}
}

// apply new config to the network, unless a run is in progress
func (p *ConfigPage) update(model string, conf nnet.Config) {
	p.Error = ""
	if p.net.running {
		p.Error = "training in progress: stop the run before changing the config"
		return
	}
	prev := p.net.Model
	p.net.Model = model
	if err := p.net.Init(conf); err != nil {
		p.Error = err.Error()
		p.net.Model = prev
		return
	}
	p.Fields = getFields(&p.net.Conf)
	p.Layers = getLayers(&p.net.Conf)
}

func (p *ConfigPage) heading() template.HTML {
	files, err := os.ReadDir(nnet.DataDir)
	if err != nil {
		log.Println(err)
	}
	html := `model: <select name="model" class="model-select" form="loadConfig" onchange="this.form.submit()">`
	for _, file := range files {
		name := file.Name()
		if strings.HasSuffix(name, ".net") {
			name = template.HTMLEscapeString(strings.TrimSuffix(name, ".net"))
			if name == p.net.Model {
				html += "<option selected>" + name + "</option>"
			} else {
				html += "<option>" + name + "</option>"
			}
		}
	}
	html += "</select>"
	return template.HTML(html)
}

func getFields(conf *nnet.Config) []Field {
	var flds []Field
	for _, key := range conf.Fields() {
		f := Field{Name: key, Value: fmt.Sprint(conf.Get(key))}
		f.On, f.Boolean = conf.Get(key).(bool)
		flds = append(flds, f)
	}
	return flds
}

func getLayers(conf *nnet.Config) []Layer {
	layers := make([]Layer, len(conf.Layers))
	for i, l := range conf.Layers {
		layers[i].Index = i
		layers[i].Desc = l.String()
	}
	return layers
}

// NewConfig loads the config for model from DataDir, saving a copy as the default settings if
// there is not one already.
func NewConfig(model string) (nnet.Config, error) {
	conf, err := nnet.LoadConfig(model + ".net")
	if err != nil {
		return conf, err
	}
	if _, err := os.Stat(filepath.Join(nnet.DataDir, model+".default")); os.IsNotExist(err) {
		return conf, conf.Save(model + ".default")
	}
	return conf, nil
}
