package resolver

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes the extraction engine binary. It exists so tests can
// substitute a fake without spawning processes.
type Runner interface {
	Run(ctx context.Context, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner runs yt-dlp as a subprocess.
type ExecRunner struct {
	BinaryPath string
}

// NewExecRunner creates a runner for the given binary, defaulting to the
// yt-dlp found on PATH.
func NewExecRunner(binaryPath string) *ExecRunner {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &ExecRunner{BinaryPath: binaryPath}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	return out.String(), stderr.String(), err
}
