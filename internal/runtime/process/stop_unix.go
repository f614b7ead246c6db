//go:build !windows

package process

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/uncovr/unc/internal/runtime"
)

func (h *processHandle) interrupt() error {
	return h.signalGroup(syscall.SIGTERM)
}

func (h *processHandle) kill() error {
	return h.signalGroup(syscall.SIGKILL)
}

func (h *processHandle) signalGroup(sig syscall.Signal) error {
	if h.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-h.cmd.Process.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal process group %s: %w", h.name, err)
	}
	return nil
}

func exitStatus(state *os.ProcessState) runtime.ExitStatus {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := int(ws.Signal())
		return runtime.ExitStatus{Code: 128 + sig, Signal: sig}
	}
	return runtime.ExitStatus{Code: state.ExitCode()}
}
