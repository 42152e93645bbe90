// Package idgen produces execution identifiers.
package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier. Tests may replace it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new execution id.
func New() string { return NewFunc() }
