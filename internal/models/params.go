package models

import (
	"fmt"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

func unknownParam(name string) error {
	return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
}

func positive(name string, value float64) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %g", dynamo.ErrParameterBounds, name, value)
	}
	return nil
}

func nonNegative(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %g", dynamo.ErrParameterBounds, name, value)
	}
	return nil
}

// SetParams applies every entry of params, stopping at the first error.
func SetParams(m dynamo.Configurable, params map[string]float64) error {
	for name, value := range params {
		if err := m.SetParam(name, value); err != nil {
			return err
		}
	}
	return nil
}
