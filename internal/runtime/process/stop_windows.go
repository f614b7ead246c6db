//go:build windows

package process

import (
	"errors"
	"fmt"
	"os"

	"github.com/uncovr/unc/internal/runtime"
)

func (h *processHandle) interrupt() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Signal(os.Interrupt)
}

func (h *processHandle) kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %s: %w", h.name, err)
	}
	return nil
}

func exitStatus(state *os.ProcessState) runtime.ExitStatus {
	return runtime.ExitStatus{Code: state.ExitCode()}
}
