//go:build windows

package proc

import (
	"os/exec"
	"strconv"
	"strings"
)

func setProcessGroup(cmd *exec.Cmd) {
	// Windows has no process groups in the POSIX sense; taskkill /T walks
	// the child tree instead.
}

// killTree force-terminates pid and its descendants via taskkill.
func killTree(pid int) error {
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid))
	if out, err := kill.CombinedOutput(); err != nil {
		// taskkill reports "not found" for already-exited processes;
		// that is success for our purposes.
		if strings.Contains(string(out), "not found") {
			return nil
		}
		return err
	}
	return nil
}
