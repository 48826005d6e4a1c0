package odoo

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed     = errors.New("authentication rejected")
	ErrNotFound       = errors.New("record not found")
	ErrUnbalanced     = errors.New("journal entry is unbalanced")
	ErrModelUnmatched = errors.New("no matching model installed")
)

// ConnError is a transport failure against the common endpoint.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string { return fmt.Sprintf("odoo: %s: %v", e.Op, e.Err) }

func (e *ConnError) Unwrap() error { return e.Err }

// OpError describes a failed execute_kw call against a specific model.
type OpError struct {
	Model     string
	Method    string
	FaultCode int
	Message   string
	Err       error
}

func (e *OpError) Error() string {
	if e.FaultCode != 0 {
		return fmt.Sprintf("odoo: %s.%s fault %d: %s", e.Model, e.Method, e.FaultCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("odoo: %s.%s: %v", e.Model, e.Method, e.Err)
	}
	return fmt.Sprintf("odoo: %s.%s: %s", e.Model, e.Method, e.Message)
}

func (e *OpError) Unwrap() error { return e.Err }
