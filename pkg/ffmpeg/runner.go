package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Runner executes a binary and returns its standard output
type Runner interface {
	Run(ctx context.Context, bin Binary, args ...string) ([]byte, error)
}

// ExecRunner runs binaries as subprocesses
type ExecRunner struct {
	Logger *zap.Logger
	// Timeout bounds every call. Zero means only ctx applies.
	Timeout time.Duration
}

// NewExecRunner creates a runner. A nil logger is replaced by a no-op one.
func NewExecRunner(logger *zap.Logger, timeout time.Duration) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Logger: logger, Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, bin Binary, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("running command",
		zap.String("binary", bin.Path),
		zap.String("args", strings.Join(args, " ")),
	)

	cmd := exec.CommandContext(ctx, bin.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "%s interrupted", bin.Name)
		}
		logger.Error("command failed",
			zap.String("binary", bin.Path),
			zap.String("stderr", lastLines(stderr.String(), 20)),
			zap.Error(err),
		)
		return nil, errors.Wrapf(err, "%s failed: %s", bin.Name, lastLines(stderr.String(), 5))
	}

	logger.Debug("command finished",
		zap.String("binary", bin.Path),
		zap.Duration("elapsed", time.Since(start)),
	)
	return stdout.Bytes(), nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
