// Package data loads the tabular and image data sets, splits them into partitions and scales features.
package data

import (
	"fmt"

	"github.com/pkg/errors"
)

// These are the errors which may be returned by the loaders, splitter and scaler.
var (
	ErrDataUnavailable = errors.New("data unavailable")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrInvalidFraction = errors.New("split fraction must lie in (0,1)")
	ErrNotFitted       = errors.New("scaler used before Fit")
)

// DegenerateFeatureError lists the feature columns with zero variance in the training data.
type DegenerateFeatureError struct {
	Columns []int
}

func (err *DegenerateFeatureError) Error() string {
	return fmt.Sprintf("zero variance in feature columns %v", err.Columns)
}
