// Program web serves the training and results viewer for an MNIST model.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/history"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/web"
)

func main() {
	log.SetFlags(0)
	var (
		addr, ledgerFile, user, pass, key string
		frac                              float64
		seed                              int64
	)
	flag.StringVar(&nnet.DataDir, "data", nnet.DataDir, "directory with the MNIST files and configs")
	flag.StringVar(&addr, "addr", ":8080", "address to listen on")
	flag.StringVar(&ledgerFile, "history", "", "sqlite file to record the runs, default <data>/history.db")
	flag.StringVar(&user, "user", "", "user name for basic auth, no auth if blank")
	flag.StringVar(&pass, "pass", os.Getenv("MLBENCH_PASS"), "password for basic auth")
	flag.StringVar(&key, "key", "", "session cookie key, random if blank")
	flag.Float64Var(&frac, "frac", 0.8, "fraction of the training pool used for training")
	flag.Int64Var(&seed, "split", 4826, "random number seed for the train / validation split")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: web [opts] <model>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	model := flag.Arg(0)
	conf, err := web.NewConfig(model)
	nnet.CheckErr(err)

	d, err := data.LoadMNISTSplit(nnet.DataDir, frac, seed)
	nnet.CheckErr(err)

	if ledgerFile == "" {
		ledgerFile = filepath.Join(nnet.DataDir, "history.db")
	}
	ledger, err := history.Open(ledgerFile)
	nnet.CheckErr(err)
	defer ledger.Close()

	net, err := web.NewNetwork(model, conf, d, ledger)
	nnet.CheckErr(err)

	t, err := web.NewTemplates([]byte(key))
	nnet.CheckErr(err)

	var h http.Handler = web.NewRouter(t, net, ledger)
	if user != "" {
		h = web.NewAuthMiddleware(user, pass).Middleware(h)
	}
	fmt.Printf("serving web page at http://localhost%s\n", addr)
	nnet.CheckErr(http.ListenAndServe(addr, h))
}
