package shellerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(ErrParse))
	assert.Equal(t, 127, ExitCode(ErrRuntime))
	assert.Equal(t, 1, ExitCode(ErrRead))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("unclassified")))
}

func TestExitCodeMappingThroughWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrParse)
	assert.Equal(t, 2, ExitCode(wrapped))
}
