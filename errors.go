package imagelayer

import "errors"

var (
	// ErrInvalidShape reports an array that is neither H×W nor H×W×3.
	ErrInvalidShape = errors.New("imagelayer: invalid array shape")
	// ErrInvalidDtype reports elements that are neither integral byte
	// intensities nor fractional intensities.
	ErrInvalidDtype = errors.New("imagelayer: invalid element type")
	// ErrInvalidOption reports an out-of-range build option or extent.
	ErrInvalidOption = errors.New("imagelayer: invalid option")
)
