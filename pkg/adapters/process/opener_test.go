package process_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/marquee/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

type exiter interface {
	Exited() <-chan struct{}
}

func TestOpener_SubstitutesTopic(t *testing.T) {
	skipOnWindows(t)

	var out bytes.Buffer
	opener := process.NewOpener(process.WindowConfig{
		Command: "sh",
		Args:    []string{"-c", `echo "$1 $MARQUEE_TOPIC $EXTRA"`, "sh", "follow {topic}"},
		Environment: map[string]string{
			"EXTRA": "x",
		},
	}, process.WithOutput(&out, &out))

	w, err := opener.Open(context.Background(), "talk")
	require.NoError(t, err)

	select {
	case <-w.(exiter).Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("window did not exit")
	}
	assert.NoError(t, w.Close(), "closing an exited window is fine")
	assert.Equal(t, "follow talk talk x\n", out.String())
}

func TestOpener_CloseStopsProcess(t *testing.T) {
	skipOnWindows(t)

	opener := process.NewOpener(process.WindowConfig{Command: "sleep", Args: []string{"30"}}, process.WithGrace(200*time.Millisecond))
	w, err := opener.Open(context.Background(), "talk")
	require.NoError(t, err)

	require.NoError(t, w.Close())
	select {
	case <-w.(exiter).Exited():
	default:
		t.Fatal("process still running after Close")
	}
	assert.NoError(t, w.Close())
}

func TestOpener_Errors(t *testing.T) {
	_, err := process.NewOpener(process.WindowConfig{}).Open(context.Background(), "t")
	assert.Error(t, err)

	_, err = process.NewOpener(process.WindowConfig{Command: "definitely-not-a-command-marquee"}).Open(context.Background(), "t")
	assert.ErrorContains(t, err, "failed to open window")
}

func TestLoadWindows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "windows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: terminal
windows:
  terminal:
    command: x-terminal-emulator
    args: ["-e", "marquee", "follow", "--topic", "{topic}"]
  browser:
    command: xdg-open
    args: ["http://localhost:8080/?topic={topic}"]
`), 0o644))

	cfg, err := process.LoadWindows(path)
	require.NoError(t, err)

	w, err := cfg.Select("")
	require.NoError(t, err)
	assert.Equal(t, "x-terminal-emulator", w.Command)

	w, err = cfg.Select("browser")
	require.NoError(t, err)
	assert.Equal(t, "xdg-open", w.Command)

	_, err = cfg.Select("projector")
	assert.ErrorContains(t, err, "not configured")

	missing, err := process.LoadWindows(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing.Windows)
}
