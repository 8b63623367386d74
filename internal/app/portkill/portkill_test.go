package portkill

import (
	"testing"

	perr "udfhost/internal/platform/errors"
	"udfhost/internal/platform/logger"
)

func TestKillRejectsBadPort(t *testing.T) {
	log := *logger.Get()
	for _, port := range []int{0, -1, 70000} {
		if _, err := Kill(port, log); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Errorf("Kill(%d): want invalid argument, got %v", port, err)
		}
	}
}

func TestKillFreePort(t *testing.T) {
	// nothing should be listening on a reserved-but-unused ephemeral port;
	// Kill on a free port reports pid 0 and no error
	pid, err := Kill(1, *logger.Get())
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if pid != 0 {
		t.Fatalf("pid = %d, want 0", pid)
	}
}
