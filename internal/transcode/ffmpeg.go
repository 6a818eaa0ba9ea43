// Package transcode converts stored recordings to H.264/AAC MP4 so that
// messaging clients can play them inline.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

// Transcoder reports success as a bool; failures never cross this boundary.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) bool
}

type commandRunner func(ctx context.Context, name string, args ...string) error

type FFmpeg struct {
	binary  string
	timeout time.Duration
	log     *zap.Logger
	run     commandRunner
}

func NewFFmpeg(binary string, timeout time.Duration, log *zap.Logger) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FFmpeg{binary: binary, timeout: timeout, log: log, run: runCommand}
}

// Args is the fixed encoding profile.
func Args(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}
}

func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) bool {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	err := f.run(ctx, f.binary, Args(inputPath, outputPath)...)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			f.log.Warn("transcode_timeout",
				zap.String("input", inputPath),
				zap.Duration("timeout", f.timeout),
			)
			return false
		}
		f.log.Warn("transcode_failed",
			zap.String("input", inputPath),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return false
	}
	f.log.Info("transcode_done",
		zap.String("output", outputPath),
		zap.Duration("elapsed", elapsed),
	)
	return true
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 2 * time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(out), 512))
	}
	return nil
}

// tail keeps the end of encoder output, where ffmpeg prints the actual error.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
