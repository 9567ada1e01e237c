package sqp

import (
	"errors"
	"fmt"

	"github.com/san-kum/mpcsqp/internal/qp"
)

var (
	ErrNoSolution      = errors.New("sqp: no problem solved yet")
	ErrQPFailed        = errors.New("sqp: failed to solve QP")
	ErrInvalidSettings = errors.New("sqp: invalid settings")
	ErrDimension       = errors.New("sqp: initial state has wrong dimension")
)

// QPError reports the backend status that aborted a solve.
type QPError struct {
	Iteration int
	Status    qp.Status
}

func (e *QPError) Error() string {
	return fmt.Sprintf("%v at iteration %d: %s", ErrQPFailed, e.Iteration, e.Status)
}

func (e *QPError) Unwrap() error {
	return ErrQPFailed
}
