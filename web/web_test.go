package web

import (
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/history"
	"github.com/jnb666/mlbench/nnet"
	"gonum.org/v1/gonum/mat"
	"gotest.tools/assert"
)

// 4x4 images where class c lights up pixel c
func images(n int, seed int64) *data.Images {
	rng := rand.New(rand.NewSource(seed))
	d := &data.Images{X: mat.NewDense(n, 16, nil), Labels: make([]int32, n), Classes: 10, Height: 4, Width: 4}
	for i := range d.Labels {
		d.Labels[i] = int32(i % 10)
		for j := 0; j < 16; j++ {
			d.X.Set(i, j, 0.2*rng.Float64())
		}
		d.X.Set(i, i%10, 1)
	}
	return d
}

func setup(t *testing.T) (*Network, *history.DB, http.Handler) {
	nnet.DataDir = t.TempDir()
	conf := nnet.Config{DataSet: "synthetic", Loss: nnet.CrossEntropy, Optimizer: nnet.Adam, Eta: 0.05,
		TrainBatch: 10, MaxEpoch: 3, RandSeed: 1}.AddLayers(nnet.Linear{Nout: 10}, nnet.Softmax{})
	assert.NilError(t, conf.Save("test.net"))
	conf, err := NewConfig("test")
	assert.NilError(t, err)
	ledger, err := history.Open(filepath.Join(nnet.DataDir, "runs.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { ledger.Close() })
	d := &data.MNIST{Train: images(100, 1), Valid: images(30, 2), Test: images(40, 3)}
	net, err := NewNetwork("test", conf, d, ledger)
	assert.NilError(t, err)
	tmpl, err := NewTemplates(nil)
	assert.NilError(t, err)
	return net, ledger, NewRouter(tmpl, net, ledger)
}

func get(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPages(t *testing.T) {
	_, _, h := setup(t)
	for _, path := range []string{"/train/stats", "/stats", "/images/all/1", "/view", "/history", "/config"} {
		rec := get(t, h, path)
		assert.Equal(t, rec.Code, http.StatusOK, path)
	}
	assert.Assert(t, strings.Contains(get(t, h, "/config").Body.String(), `name="Eta"`))
	assert.Assert(t, strings.Contains(get(t, h, "/confusion").Body.String(), "no predictions yet"))

	rec := get(t, h, "/img/1")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-type"), "image/png")
	assert.Equal(t, get(t, h, "/img/41").Code, http.StatusNotFound)
	assert.Equal(t, get(t, h, "/view/weights.png").Code, http.StatusOK)
}

func TestImageFilterSession(t *testing.T) {
	_, _, h := setup(t)
	rec := get(t, h, "/images")
	assert.Equal(t, rec.Code, http.StatusFound)
	assert.Equal(t, rec.Header().Get("Location"), "/images/all/1")

	rec = get(t, h, "/images/errors/1")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Assert(t, strings.Contains(rec.Body.String(), "0 images"))
	cookies := rec.Result().Cookies()
	assert.Assert(t, len(cookies) > 0)

	rec = get(t, h, "/images", cookies...)
	assert.Equal(t, rec.Header().Get("Location"), "/images/errors/1")
}

func TestConfigSave(t *testing.T) {
	net, _, h := setup(t)
	form := url.Values{}
	for _, f := range getFields(&net.Conf) {
		form.Set(f.Name, f.Value)
	}
	form.Set("Eta", "0.01")
	form.Set("Shuffle", "true")
	req := httptest.NewRequest("POST", "/config/save", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, rec.Code, http.StatusFound)
	assert.Equal(t, net.Conf.Eta, 0.01)
	assert.Assert(t, net.Conf.Shuffle)

	conf, err := nnet.LoadConfig("test.net")
	assert.NilError(t, err)
	assert.Equal(t, conf.Eta, 0.01)

	rec = get(t, h, "/config/reset")
	assert.Equal(t, rec.Code, http.StatusFound)
	assert.Equal(t, net.Conf.Eta, 0.05)
}

func TestTrain(t *testing.T) {
	net, ledger, h := setup(t)
	server := httptest.NewServer(h)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	assert.NilError(t, err)
	defer conn.Close()
	deadline := time.Now().Add(10 * time.Second)
	for {
		net.Lock()
		ready := net.conn != nil
		net.Unlock()
		if ready {
			break
		}
		assert.Assert(t, time.Now().Before(deadline), "websocket not registered")
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get(server.URL + "/train/start")
	assert.NilError(t, err)
	resp.Body.Close()

	var msgs []string
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for len(msgs) == 0 || msgs[len(msgs)-1] != "done" {
		_, msg, err := conn.ReadMessage()
		assert.NilError(t, err)
		msgs = append(msgs, string(msg))
	}
	assert.DeepEqual(t, msgs, []string{"1", "2", "3", "done"})

	net.Lock()
	assert.Equal(t, len(net.Stats), 3)
	assert.Equal(t, len(net.Pred), 40)
	assert.Assert(t, !net.running)
	net.Unlock()

	assert.Assert(t, strings.Contains(get(t, h, "/confusion").Body.String(), "<svg"))
	assert.Assert(t, strings.Contains(get(t, h, "/stats").Body.String(), "test set: loss="))
	runs, err := ledger.List("test")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
	assert.Equal(t, runs[0].Epochs, 3)
	assert.Assert(t, strings.Contains(get(t, h, "/history").Body.String(), "<td>test</td>"))
}

func TestAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	h := NewAuthMiddleware("user", "secret").Middleware(ok)

	rec := get(t, h, "/")
	assert.Equal(t, rec.Code, http.StatusUnauthorized)

	req := httptest.NewRequest("GET", "/", nil)
	req.SetBasicAuth("user", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, rec.Code, http.StatusUnauthorized)

	req = httptest.NewRequest("GET", "/", nil)
	req.SetBasicAuth("user", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, rec.Code, http.StatusOK)
	cookies := rec.Result().Cookies()
	assert.Equal(t, len(cookies), 1)

	rec = get(t, h, "/", cookies...)
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Body.String(), "ok")
}

func TestSummarise(t *testing.T) {
	runs := []history.Run{
		{Model: "mlp", TestLoss: 0.2, TestMetric: 0.9},
		{Model: "linear", TestLoss: 0.4, TestMetric: 0.8},
		{Model: "mlp", TestLoss: math.NaN(), TestMetric: math.NaN()},
		{Model: "mlp", TestLoss: 0.4, TestMetric: 0.95},
	}
	res := summarise(runs)
	assert.Equal(t, len(res), 2)
	assert.Equal(t, res[0].Model, "linear")
	assert.Equal(t, res[1].Model, "mlp")
	assert.Equal(t, res[1].Loss.Count, 2)
	assert.Assert(t, math.Abs(res[1].Loss.Mean-0.3) < 1e-12)
	assert.Assert(t, math.Abs(res[1].Accuracy.Mean-92.5) < 1e-9)
}
