package invariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreconditionPassesSilently(t *testing.T) {
	assert.NotPanics(t, func() {
		Precondition(true, "unreachable")
	})
}

func TestPreconditionPanicsOnViolation(t *testing.T) {
	assert.Panics(t, func() {
		Precondition(false, "fd %d out of range", 9)
	})
}

func TestInvariantPanicsOnViolation(t *testing.T) {
	assert.Panics(t, func() {
		Invariant(false, "table must not shrink")
	})
}

func TestNotNilPanicsOnNilValue(t *testing.T) {
	assert.Panics(t, func() {
		NotNil(nil, "runtime")
	})
}

func TestNotNilPassesForNonNilValue(t *testing.T) {
	assert.NotPanics(t, func() {
		NotNil(&struct{}{}, "runtime")
	})
}
