package indicators

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn    = errors.New("missing column")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// MissingColumnError reports a required input column that is absent.
type MissingColumnError struct {
	Column    string
	Indicator string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: required column %q not found", e.Indicator, e.Column)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// InsufficientDataError reports a table shorter than an indicator's minimum.
type InsufficientDataError struct {
	Required  int
	Actual    int
	Indicator string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d rows, got %d", e.Indicator, e.Required, e.Actual)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// InvalidParameterError reports a parameter outside its domain.
type InvalidParameterError struct {
	Indicator string
	Detail    string
}

func (e *InvalidParameterError) Error() string {
	if e.Indicator == "" {
		return "invalid parameter: " + e.Detail
	}
	return fmt.Sprintf("%s: invalid parameter: %s", e.Indicator, e.Detail)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

func invalidParam(indicator, format string, args ...any) error {
	return &InvalidParameterError{Indicator: indicator, Detail: fmt.Sprintf(format, args...)}
}

func requirePositive(indicator, name string, v int) error {
	if v < 1 {
		return invalidParam(indicator, "%s must be >= 1, got %d", name, v)
	}
	return nil
}

func requireRows(indicator string, required, actual int) error {
	if actual < required {
		return &InsufficientDataError{Required: required, Actual: actual, Indicator: indicator}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
