package data

import (
	"log"
)

// QSAR holds the split and standardised solubility data.
type QSAR struct {
	Train, Test *Tabular
	Scaler      *Scaler
}

// LoadQSAR loads the solubility arrays from dir, splits them into train and test partitions
// and standardises the features using statistics from the training rows only.
func LoadQSAR(dir string, frac float64, seed int64) (*QSAR, error) {
	all, err := LoadTabular(dir, QSARFeatures, QSARLabels)
	if err != nil {
		return nil, err
	}
	trainIx, testIx, err := Split(all.Len(), frac, seed)
	if err != nil {
		return nil, err
	}
	q := &QSAR{Train: all.Subset(trainIx), Test: all.Subset(testIx), Scaler: new(Scaler)}
	if q.Train.X, err = q.Scaler.FitTransform(q.Train.X); err != nil {
		return nil, err
	}
	if len(q.Scaler.Degenerate) > 0 {
		log.Printf("warning: constant feature columns %v", q.Scaler.Degenerate)
	}
	if q.Test.Len() > 0 {
		if q.Test.X, err = q.Scaler.Transform(q.Test.X); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// MNIST holds the train, validation and test image sets.
type MNIST struct {
	Train, Valid, Test *Images
}

// LoadMNISTSplit loads the MNIST images from dir and splits the training pool into train and
// validation sets. The separate test set is kept as is.
func LoadMNISTSplit(dir string, frac float64, seed int64) (*MNIST, error) {
	pool, test, err := LoadMNIST(dir)
	if err != nil {
		return nil, err
	}
	trainIx, validIx, err := Split(pool.Len(), frac, seed)
	if err != nil {
		return nil, err
	}
	return &MNIST{Train: pool.Subset(trainIx), Valid: pool.Subset(validIx), Test: test}, nil
}
