// Package portkill frees a TCP listen port by terminating its owner process
package portkill

import (
	"fmt"
	"os"

	perr "udfhost/internal/platform/errors"
	"udfhost/internal/platform/logger"
)

// Kill terminates the process listening on port, if any
// returns the pid that was signalled, or 0 when the port was already free
// the current process is never signalled
func Kill(port int, log logger.Logger) (int, error) {
	if port <= 0 || port > 65535 {
		return 0, perr.InvalidArgf("portkill: invalid port %d", port)
	}

	pid, err := listenerPID(port)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		return 0, nil
	}
	if pid == os.Getpid() {
		log.Warn().Int("port", port).Msg("listener is this process, not killing")
		return 0, nil
	}

	if err := terminate(pid); err != nil {
		return 0, fmt.Errorf("portkill: terminate pid %d: %w", pid, err)
	}
	log.Info().Int("port", port).Int("pid", pid).Msg("terminated existing listener")
	return pid, nil
}
