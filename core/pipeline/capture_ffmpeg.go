package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lissants/berkaraoke/config"
	"github.com/lissants/berkaraoke/logger"

	"github.com/fsnotify/fsnotify"
)

// FFmpegCapture records from the microphone by running ffmpeg against the
// configured ALSA device, writing an m4a file into the scratch directory.
type FFmpegCapture struct {
	ffmpegPath string
	device     string
	outputDir  string
}

// NewFFmpegCapture creates a capture device from the configuration.
func NewFFmpegCapture(cfg *config.Config) *FFmpegCapture {
	return &FFmpegCapture{
		ffmpegPath: cfg.FFmpegPath,
		device:     cfg.CaptureDevice,
		outputDir:  cfg.RecordingsDir,
	}
}

// RequestPermission verifies ffmpeg is present and the scratch directory is
// writable. Actual device access failures surface on Begin.
func (d *FFmpegCapture) RequestPermission(ctx context.Context) error {
	if _, err := exec.LookPath(d.ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		return fmt.Errorf("recordings directory not writable: %w", err)
	}
	return nil
}

// Begin starts an ffmpeg capture process.
func (d *FFmpegCapture) Begin(ctx context.Context) (CaptureSession, error) {
	outFile := filepath.Join(d.outputDir, fmt.Sprintf("capture_%d.m4a", time.Now().UnixNano()))

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "alsa",
		"-i", d.device,
		"-ac", "2",
		"-ar", "44100",
		"-c:a", "aac",
		"-b:a", "128k",
		"-y", outFile,
	}

	cmd := exec.Command(d.ffmpegPath, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg capture: %w", err)
	}

	logger.Info("Capture started",
		logger.String("device", d.device),
		logger.String("output", outFile),
	)

	return &ffmpegSession{cmd: cmd, outFile: outFile, outputDir: d.outputDir}, nil
}

type ffmpegSession struct {
	cmd       *exec.Cmd
	outFile   string
	outputDir string
}

// Finalize asks ffmpeg to finish the file (SIGINT lets it write the trailer),
// waits for writes to settle, and returns the file path.
func (s *ffmpegSession) Finalize(ctx context.Context) (string, error) {
	if err := s.cmd.Process.Signal(syscall.SIGINT); err != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
		return "", fmt.Errorf("failed to signal ffmpeg: %w", err)
	}

	// ffmpeg exits non-zero on SIGINT; what matters is whether a usable
	// file exists afterwards.
	s.cmd.Wait()

	if err := waitForSettle(ctx, s.outputDir, s.outFile, 2*time.Second); err != nil {
		logger.Warn("Capture file did not settle", logger.ErrorField(err))
	}

	info, err := os.Stat(s.outFile)
	if err != nil || info.Size() == 0 {
		// Finalization succeeded but produced nothing usable.
		return "", nil
	}
	return s.outFile, nil
}

// Abort kills the capture and removes any partial output.
func (s *ffmpegSession) Abort() {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	os.Remove(s.outFile)
}

// waitForSettle watches the scratch directory until the capture file stops
// receiving writes, or the deadline passes.
func waitForSettle(ctx context.Context, dir, file string, timeout time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	deadline := time.After(timeout)
	quiet := time.NewTimer(200 * time.Millisecond)
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("timed out waiting for %s to settle", file)
		case <-quiet.C:
			return nil
		case ev := <-watcher.Events:
			if ev.Name == file && ev.Op&fsnotify.Write != 0 {
				quiet.Reset(200 * time.Millisecond)
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
