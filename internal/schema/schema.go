// SPDX-License-Identifier: Apache-2.0

// Package schema validates report documents and weights tables against
// CUE definitions before they are decoded.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var source string

// Definitions that documents can be validated against.
const (
	Weights = "#Weights"
	Project = "#Project"
	Sidecar = "#Sidecar"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("document does not match schema")

// Validator checks JSON documents against the embedded CUE schema.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(source, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a shared Validator.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}

// Validate checks data, a JSON document, against the named definition.
// name identifies the document in error messages.
func (v *Validator) Validate(definition, name string, data []byte) error {
	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %v", ErrInvalid, name, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.schema.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("unknown schema definition %q", definition)
	}
	value := v.ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalid, name, cueerrors.Details(err, nil))
	}
	return nil
}
