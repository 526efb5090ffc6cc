package ann

import "fmt"

var errEmptyVector = fmt.Errorf("ann: vector has zero length")

func dimensionError(want, got int) error {
	return fmt.Errorf("ann: dimension mismatch: index is %d-dimensional, got %d", want, got)
}
