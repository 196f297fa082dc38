// Package dataset splits corpora into train, validation and test sets.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ratioTolerance absorbs float error when checking that a ratio sums to 1
const ratioTolerance = 1e-9

// ErrInvalidRatio is returned for ratios that are negative, not finite, or
// do not sum to 1
var ErrInvalidRatio = errors.New("invalid partition ratio")

// Ratio is the train/val/test split, each part in [0, 1]
type Ratio struct {
	Train float64
	Val   float64
	Test  float64
}

// Validate checks that every part is a finite non-negative number and that
// the parts sum to 1
func (r Ratio) Validate() error {
	for _, v := range []float64{r.Train, r.Val, r.Test} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidRatio, r)
		}
	}
	if sum := r.Train + r.Val + r.Test; math.Abs(sum-1) > ratioTolerance {
		return fmt.Errorf("%w: parts sum to %g", ErrInvalidRatio, sum)
	}
	return nil
}

// String renders the ratio the way ParseRatio reads it
func (r Ratio) String() string {
	return fmt.Sprintf("%g,%g,%g", r.Train, r.Val, r.Test)
}

// ParseRatio reads "train,val,test", e.g. "0.8,0.1,0.1"
func ParseRatio(s string) (Ratio, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Ratio{}, fmt.Errorf("%w: want 3 comma-separated parts, got %q", ErrInvalidRatio, s)
	}

	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Ratio{}, fmt.Errorf("%w: %q: %v", ErrInvalidRatio, p, err)
		}
		vals[i] = v
	}

	r := Ratio{Train: vals[0], Val: vals[1], Test: vals[2]}
	if err := r.Validate(); err != nil {
		return Ratio{}, err
	}
	return r, nil
}

// Sizes returns the split lengths for n items: train is floor(n*Train), val
// is ceil(n*Val) clamped so it never overruns the data, and test takes the
// remainder
func (r Ratio) Sizes(n int) (train, val, test int) {
	train = int(math.Floor(float64(n) * r.Train))
	if train > n {
		train = n
	}
	val = int(math.Ceil(float64(n) * r.Val))
	if val > n-train {
		val = n - train
	}
	test = n - train - val
	return train, val, test
}

// Partition splits items into contiguous train, val and test slices in
// their original order. Concatenating the three reproduces items. The
// returned slices share the backing array of items.
func Partition[T any](items []T, r Ratio) (train, val, test []T, err error) {
	if err := r.Validate(); err != nil {
		return nil, nil, nil, err
	}

	n := len(items)
	trainLen, valLen, _ := r.Sizes(n)
	valEnd := trainLen + valLen

	return items[:trainLen:trainLen], items[trainLen:valEnd:valEnd], items[valEnd:n:n], nil
}
