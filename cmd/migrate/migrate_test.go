package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/laborboard/internal/testutil"
)

func TestRun_RejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown action", []string{"-action", "sideways", "-database-url", "postgres://x"}, "unknown action"},
		{"negative steps", []string{"-steps", "-1"}, "steps must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_AgainstDatabase(t *testing.T) {
	db := testutil.NewTestDB(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"-action", "version", "-database-url", db.URL}, &out))
	assert.Equal(t, "version=2 dirty=false\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"-action", "down", "-steps", "1", "-database-url", db.URL}, &out))
	assert.Equal(t, "version=1 dirty=false\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"-action", "up", "-database-url", db.URL}, &out))
	assert.Equal(t, "version=2 dirty=false\n", out.String())
}
