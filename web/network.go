// Package web has a web based interface for network training and visualisation of the results.
package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/history"
	"github.com/jnb666/mlbench/img"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/stats"
	"github.com/pkg/errors"
)

// number of hidden units shown on the weights page
const maxWeightImages = 100

// color map definition
var cmap = [][3]float32{{0, 0, .5}, {0, 0, 1}, {0, .5, 1}, {0, 1, 1}, {.5, 1, .5}, {1, 1, 0}, {1, .5, 0}, {1, 0, 0}, {.5, 0, 0}}

// Network and associated training / test data and configuration, shared by the page handlers.
// Fields are guarded by the mutex while a training run is in progress.
type Network struct {
	Model   string
	Conf    nnet.Config
	Data    *data.MNIST
	Stats   nnet.History
	Pred    []int32 // test set predictions after the latest epoch
	Epoch   int
	Score   nnet.Score
	trainer *nnet.Trainer
	weights *image.NRGBA
	ledger  *history.DB
	conn    *websocket.Conn
	running bool
	stop    bool
	sync.Mutex
}

// Create a new network for the model with the given config and data. Completed runs are recorded
// in ledger if it is not nil.
func NewNetwork(model string, conf nnet.Config, d *data.MNIST, ledger *history.DB) (*Network, error) {
	n := &Network{Model: model, Data: d, ledger: ledger}
	if err := n.Init(conf); err != nil {
		return nil, err
	}
	return n, nil
}

// Initialise the network with fresh weights. Must not be called while training.
func (n *Network) Init(conf nnet.Config) error {
	if n.running {
		return nnet.ErrTraining
	}
	_, cols := n.Data.Train.X.Dims()
	net, err := nnet.New(conf, cols)
	if err != nil {
		return err
	}
	if net.OutWidth() != n.Data.Train.Classes {
		return errors.Errorf("network has %d outputs for %d classes", net.OutWidth(), n.Data.Train.Classes)
	}
	if conf.DebugLevel >= 1 {
		fmt.Println(net)
	}
	t := nnet.NewTrainer(net)
	opt := nnet.OptimizerConfig{Kind: conf.Optimizer, Eta: conf.Eta, Lambda: conf.Lambda}
	if err = t.Compile(conf.Loss, opt, nnet.Accuracy); err != nil {
		return err
	}
	t.Tester = n
	n.Conf, n.trainer = conf, t
	n.Stats, n.Pred, n.Epoch, n.Score = nil, nil, 0, nnet.Score{}
	n.weights = weightImage(net, n.Data.Train.Width, n.Data.Train.Height)
	return nil
}

// Train starts a new training run in the background. Caller should hold the lock.
func (n *Network) Train() error {
	if n.running {
		return nnet.ErrTraining
	}
	if err := n.Init(n.Conf); err != nil {
		return err
	}
	d := n.Data
	train, err := nnet.NewClassDataset(d.Train.X, d.Train.Labels, d.Train.Classes, n.Conf.TrainBatch)
	if err != nil {
		return err
	}
	valid, err := nnet.NewClassDataset(d.Valid.X, d.Valid.Labels, d.Valid.Classes, n.Conf.TestBatch)
	if err != nil {
		return err
	}
	test, err := nnet.NewClassDataset(d.Test.X, d.Test.Labels, d.Test.Classes, n.Conf.TestBatch)
	if err != nil {
		return err
	}
	log.Printf("train %s: %d epochs\n", n.Model, n.Conf.MaxEpoch)
	n.running, n.stop = true, false
	go func() {
		_, err := n.trainer.Fit(train, valid, n.Conf.MaxEpoch)
		var score nnet.Score
		if err == nil {
			score, err = n.trainer.Evaluate(test)
		}
		n.Lock()
		defer n.Unlock()
		n.running = false
		if err != nil {
			log.Println("train error:", err)
			return
		}
		n.Score = score
		log.Printf("%s: test %s\n", n.Model, score)
		if err := n.record(); err != nil {
			log.Println("history error:", err)
		}
		n.notify("done")
	}()
	return nil
}

// Test is called by the trainer after each epoch. It updates the test set predictions and
// notifies the browser. Returns true if a stop has been requested.
func (n *Network) Test(t *nnet.Trainer, s nnet.Stats) bool {
	pred, err := t.Classes(n.Data.Test.X)
	weights := weightImage(t.Net, n.Data.Train.Width, n.Data.Train.Height)
	n.Lock()
	defer n.Unlock()
	if err != nil {
		log.Println("predict error:", err)
	} else {
		n.Pred = pred
	}
	n.Stats = append(n.Stats, s)
	n.Epoch = s.Epoch
	n.weights = weights
	if n.Conf.LogEvery > 0 && s.Epoch%n.Conf.LogEvery == 0 {
		log.Printf("epoch %d: %v\n", s.Epoch, s.Format(true))
	}
	n.notify(strconv.Itoa(s.Epoch))
	return n.stop
}

// Confusion returns the confusion matrix for the latest test set predictions.
func (n *Network) Confusion() (*stats.Confusion, error) {
	if n.Pred == nil {
		return nil, errors.New("no predictions yet: start a training run")
	}
	return stats.ConfusionMatrix(n.Data.Test.Classes, n.Data.Test.Labels, n.Pred)
}

// send message to websocket client if connected
func (n *Network) notify(msg string) {
	if n.conn == nil {
		return
	}
	if err := n.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		log.Println("websocket:", err)
		n.conn.Close()
		n.conn = nil
	}
}

// add the completed run to the history database
func (n *Network) record() error {
	if n.ledger == nil || len(n.Stats) == 0 {
		return nil
	}
	conf, err := json.Marshal(n.Conf)
	if err != nil {
		return err
	}
	last := n.Stats[len(n.Stats)-1]
	_, err = n.ledger.Add(history.Run{
		Model:      n.Model,
		Dataset:    "mnist",
		Config:     string(conf),
		TrainLoss:  last.TrainLoss,
		TestLoss:   n.Score.Loss,
		TestMetric: n.Score.Metric,
		Epochs:     last.Epoch,
		Elapsed:    last.Elapsed,
	})
	return err
}

func (n *Network) heading() template.HTML {
	s := fmt.Sprintf(`%s: epoch <span id="epoch">%d</span> of %d`, n.Model, n.Epoch, n.Conf.MaxEpoch)
	return template.HTML(s)
}

// RunTime returns the elapsed time for the run.
func (n *Network) RunTime() string {
	if len(n.Stats) == 0 {
		return ""
	}
	return fmt.Sprintf("run time: %s", n.Stats[len(n.Stats)-1].Elapsed.Round(10*time.Millisecond))
}

// weightImage renders the first layer weights feeding each hidden unit as an image
func weightImage(net *nnet.Network, width, height int) *image.NRGBA {
	for _, layer := range net.Layers {
		l, ok := layer.(nnet.ParamLayer)
		if !ok {
			continue
		}
		W, _ := l.Params()
		rows, cols := W.Dims()
		if rows != width*height {
			return nil
		}
		if cols > maxWeightImages {
			cols = maxWeightImages
		}
		images := make([]image.Image, cols)
		for j := range images {
			col := make([]float64, rows)
			cmin, cmax := math.Inf(1), math.Inf(-1)
			for i := range col {
				col[i] = W.At(i, j)
				cmin, cmax = math.Min(cmin, col[i]), math.Max(cmax, col[i])
			}
			m := image.NewNRGBA(image.Rect(0, 0, width, height))
			for i, v := range col {
				m.SetNRGBA(i%width, i/width, mapColor(float32(v), float32(cmin), float32(cmax)))
			}
			images[j] = img.Scale(m, 2)
		}
		return img.Grid(images, 10, 2, color.White)
	}
	return nil
}

// map value in range cmin to cmax onto the color map
func mapColor(val float32, cmin, cmax float32) color.NRGBA {
	if cmax <= cmin {
		return color.NRGBA{A: 255}
	}
	x := (val - cmin) / (cmax - cmin) * float32(len(cmap)-1)
	i := int(x)
	if i >= len(cmap)-1 {
		i, x = len(cmap)-2, float32(len(cmap)-1)
	}
	f := x - float32(i)
	var c [3]uint8
	for k := range c {
		c[k] = uint8(255 * (cmap[i][k]*(1-f) + cmap[i+1][k]*f))
	}
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: 255}
}
