package logutil

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseToggle(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})

	Debugf("hidden %d", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.False(t, Verbose())

	SetVerbose(true)
	assert.True(t, Verbose())
	Debugf("shown %d", 2)
	With("platform", "ghost").Debug("tagged")
	Warnf("careful")

	out := buf.String()
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "platform=ghost")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "xpublish")
}
