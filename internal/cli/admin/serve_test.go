package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePort(t *testing.T) {
	t.Run("no flag keeps the configured port", func(t *testing.T) {
		cmd := ServeCmd()
		require.NoError(t, cmd.ParseFlags(nil))

		assert.Equal(t, "9090", resolvePort(cmd, "9090"))
	})

	t.Run("flag overrides the configured port", func(t *testing.T) {
		cmd := ServeCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--port", "3000"}))

		assert.Equal(t, "3000", resolvePort(cmd, "9090"))
	})

	t.Run("flag repeating the default still overrides", func(t *testing.T) {
		cmd := ServeCmd()
		require.NoError(t, cmd.ParseFlags([]string{"-p", "8080"}))

		assert.Equal(t, "8080", resolvePort(cmd, "9090"))
	})
}
