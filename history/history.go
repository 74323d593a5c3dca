// Package history keeps a ledger of completed training runs in a SQLite database so results
// can be compared across invocations. Only summary scores and the config are stored, not the
// trained weights.
package history

import (
	"database/sql"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schema = `
create table if not exists runs (
	id          integer primary key autoincrement,
	model       text not null,
	dataset     text not null,
	config      text not null,
	train_loss  real,
	test_loss   real,
	test_metric real,
	epochs      integer not null,
	elapsed     integer not null,
	created     integer not null
)`

// Run is the summary of one fitted model. Scores which are NaN or infinite, as after a run
// which diverged, are stored as NULL and read back as NaN.
type Run struct {
	ID         int64
	Model      string
	Dataset    string
	Config     string // JSON encoded settings
	TrainLoss  float64
	TestLoss   float64
	TestMetric float64
	Epochs     int
	Elapsed    time.Duration
	Created    time.Time
}

// DB is a handle to the run ledger.
type DB struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open history")
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create schema in %s", path)
	}
	return &DB{db: db}, nil
}

// Add appends a run and returns it with the ID and creation time filled in.
func (d *DB) Add(r Run) (Run, error) {
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	res, err := d.db.Exec(`insert into runs
		(model, dataset, config, train_loss, test_loss, test_metric, epochs, elapsed, created)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Model, r.Dataset, r.Config, score(r.TrainLoss), score(r.TestLoss), score(r.TestMetric), r.Epochs,
		int64(r.Elapsed), r.Created.UnixNano())
	if err != nil {
		return r, errors.Wrap(err, "add run")
	}
	r.ID, err = res.LastInsertId()
	return r, err
}

// List returns the runs for the given model, or all runs if model is empty, oldest first.
func (d *DB) List(model string) ([]Run, error) {
	query := `select id, model, dataset, config, train_loss, test_loss, test_metric, epochs,
		elapsed, created from runs`
	var args []interface{}
	if model != "" {
		query += " where model = ?"
		args = append(args, model)
	}
	rows, err := d.db.Query(query+" order by id", args...)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var r Run
		var elapsed, created int64
		var trainLoss, testLoss, testMetric sql.NullFloat64
		err = rows.Scan(&r.ID, &r.Model, &r.Dataset, &r.Config, &trainLoss, &testLoss,
			&testMetric, &r.Epochs, &elapsed, &created)
		if err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.TrainLoss, r.TestLoss, r.TestMetric = value(trainLoss), value(testLoss), value(testMetric)
		r.Elapsed = time.Duration(elapsed)
		r.Created = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func score(x float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: x, Valid: !math.IsNaN(x) && !math.IsInf(x, 0)}
}

func value(x sql.NullFloat64) float64 {
	if !x.Valid {
		return math.NaN()
	}
	return x.Float64
}

// Close the database.
func (d *DB) Close() error {
	return d.db.Close()
}
