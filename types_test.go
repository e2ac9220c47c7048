package account

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestDefLogger_KeyValueArgs(t *testing.T) {
	tests := []struct {
		name string
		log  func(l defLogger)
		want string
	}{
		{
			name: "error with pairs",
			log: func(l defLogger) {
				l.Error("request failed", "path", "/login", "error", errors.New("boom"))
			},
			want: "[ERR] ACCOUNT request failed path=/login error=boom\n",
		},
		{
			name: "warn without args",
			log:  func(l defLogger) { l.Warn("SENDGRID_API_KEY not set") },
			want: "[WRN] ACCOUNT SENDGRID_API_KEY not set\n",
		},
		{
			name: "info keeps a single newline",
			log:  func(l defLogger) { l.Info("listening\n", "addr", ":3000") },
			want: "[INF] ACCOUNT listening addr=:3000\n",
		},
		{
			name: "debug with dangling arg",
			log:  func(l defLogger) { l.Debug("request rejected", "text_code", "not_found", 42) },
			want: "[DBG] ACCOUNT request rejected text_code=not_found !BADKEY=42\n",
		},
		{
			name: "percent signs are not verbs",
			log:  func(l defLogger) { l.Info("100% done", "ratio", "5%d") },
			want: "[INF] ACCOUNT 100% done ratio=5%d\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStdout(t, func() { tt.log(defLogger{}) })
			assert.Equal(t, tt.want, out)
			assert.NotContains(t, out, "%!")
		})
	}
}
