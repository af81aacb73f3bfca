// Package process opens audience windows by launching external programs,
// for example a terminal running "marquee follow" or a browser on the audience URL.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/marquee/pkg/ports"
)

// DefaultGrace is how long Close waits after interrupting a window before killing it.
const DefaultGrace = 2 * time.Second

// Opener implements ports.WindowOpener by starting a process per window.
type Opener struct {
	config WindowConfig
	grace  time.Duration
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// OpenerOption configures the opener.
type OpenerOption func(*Opener)

// WithGrace sets the interrupt-to-kill delay.
func WithGrace(d time.Duration) OpenerOption {
	return func(o *Opener) {
		o.grace = d
	}
}

// WithOutput forwards the window's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) OpenerOption {
	return func(o *Opener) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OpenerOption {
	return func(o *Opener) {
		o.logger = l
	}
}

// NewOpener creates an opener for cfg.
func NewOpener(cfg WindowConfig, opts ...OpenerOption) *Opener {
	o := &Opener{
		config: cfg,
		grace:  DefaultGrace,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open starts the window process. The topic is substituted into the arguments and
// exported as MARQUEE_TOPIC. The process is not bound to ctx: it lives until Close.
func (o *Opener) Open(ctx context.Context, topic string) (ports.Window, error) {
	if o.config.Command == "" {
		return nil, errors.New("window command is empty")
	}

	args := make([]string, len(o.config.Args))
	for i, a := range o.config.Args {
		args[i] = strings.ReplaceAll(a, TopicPlaceholder, topic)
	}

	cmd := exec.Command(o.config.Command, args...)
	cmd.Dir = o.config.Dir
	cmd.Stdout = o.stdout
	cmd.Stderr = o.stderr

	env := []string{"MARQUEE_TOPIC=" + topic}
	for k, v := range o.config.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Environ(), env...)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to open window: %w", err)
	}
	o.logger.Info("audience window opened", "pid", cmd.Process.Pid, "command", o.config.Command)

	w := &window{cmd: cmd, grace: o.grace, exited: make(chan struct{})}
	go func() {
		w.err = cmd.Wait()
		close(w.exited)
	}()
	return w, nil
}

type window struct {
	cmd    *exec.Cmd
	grace  time.Duration
	exited chan struct{}
	err    error
	once   sync.Once
}

// Close interrupts the process, then kills it if it has not exited within the grace period.
// A window the user already closed is not an error.
func (w *window) Close() error {
	var err error
	w.once.Do(func() {
		select {
		case <-w.exited:
			return
		default:
		}

		if sigErr := w.cmd.Process.Signal(os.Interrupt); sigErr != nil {
			_ = w.cmd.Process.Kill()
		}
		select {
		case <-w.exited:
		case <-time.After(w.grace):
			if killErr := w.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
				err = fmt.Errorf("failed to close window: %w", killErr)
				return
			}
			<-w.exited
		}
	})
	return err
}

// Exited is closed when the window process ends.
func (w *window) Exited() <-chan struct{} {
	return w.exited
}
