package pipeline

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/lissants/berkaraoke/config"
)

// FFplayEngine plays local recordings through ffplay.
type FFplayEngine struct {
	ffplayPath string
}

// NewFFplayEngine creates a playback engine from the configuration.
func NewFFplayEngine(cfg *config.Config) *FFplayEngine {
	return &FFplayEngine{ffplayPath: cfg.FFplayPath}
}

// Play starts ffplay against the local media file. The process exits on its
// own at end of track, which closes the handle's Done channel.
func (e *FFplayEngine) Play(ctx context.Context, uri string) (PlaybackHandle, error) {
	if _, err := exec.LookPath(e.ffplayPath); err != nil {
		return nil, fmt.Errorf("ffplay not available: %w", err)
	}

	cmd := exec.Command(e.ffplayPath, "-nodisp", "-autoexit", "-loglevel", "quiet", uri)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffplay: %w", err)
	}

	handle := &ffplayHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(handle.done)
	}()
	return handle, nil
}

type ffplayHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (h *ffplayHandle) Stop() {
	if h.cmd.Process != nil {
		h.cmd.Process.Kill()
	}
	<-h.done
}

func (h *ffplayHandle) Done() <-chan struct{} {
	return h.done
}
