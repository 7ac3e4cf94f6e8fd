// Package pidfile manages the crawler's liveness marker so external
// monitors, and second copies of the binary, can tell a crawler is running.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned when the marker names a live process.
var ErrAlreadyRunning = errors.New("already running")

// Write records the current pid at path. A stale marker left by a dead
// process is overwritten; a marker owned by a live process is an error.
func Write(path string) error {
	if pid, err := readPid(path); err == nil && alive(pid) {
		return fmt.Errorf("%w: pid %d holds %s", ErrAlreadyRunning, pid, path)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Remove deletes the marker. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// alive probes the pid with the null signal.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
