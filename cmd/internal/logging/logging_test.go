package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DEBUG, ParseLevel("debug"))
	assert.Equal(t, log.WARN, ParseLevel(" WARN "))
	assert.Equal(t, log.OFF, ParseLevel("off"))
	assert.Equal(t, log.INFO, ParseLevel("verbose"))
}

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")

	out, closer := Setup("info", path)
	t.Cleanup(func() {
		log.SetOutput(os.Stdout)
		_ = closer.Close()
	})

	log.Info("hello from the test")
	_, err := out.Write([]byte("access line\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
	assert.Contains(t, string(data), "access line")
}
