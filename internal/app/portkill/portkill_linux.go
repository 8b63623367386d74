package portkill

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// listenerPID resolves which pid owns a LISTEN socket on port by walking
// procfs: the socket inode comes from /proc/net/tcp{,6}, the owning pid
// from the /proc/<pid>/fd symlink that points at that inode
func listenerPID(port int) (int, error) {
	var inodes []string
	for _, table := range []string{"/proc/net/tcp", "/proc/net/tcp6"} {
		ins, err := listenInodes(table, port)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		inodes = append(inodes, ins...)
	}
	if len(inodes) == 0 {
		return 0, nil
	}
	return pidForInodes(inodes)
}

// listenInodes returns socket inodes in LISTEN state on port from one table
func listenInodes(table string, port int) ([]string, error) {
	f, err := os.Open(table)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	const stateListen = "0A"
	hexPort := fmt.Sprintf("%04X", port)

	var out []string
	sc := bufio.NewScanner(f)
	sc.Scan() // header
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 10 {
			continue
		}
		// fields[1] local address "HEXIP:HEXPORT", fields[3] state, fields[9] inode
		local := fields[1]
		i := strings.LastIndexByte(local, ':')
		if i < 0 || local[i+1:] != hexPort {
			continue
		}
		if fields[3] != stateListen {
			continue
		}
		out = append(out, fields[9])
	}
	return out, sc.Err()
}

// pidForInodes scans /proc/<pid>/fd for a socket link matching any inode
func pidForInodes(inodes []string) (int, error) {
	want := make(map[string]struct{}, len(inodes))
	for _, in := range inodes {
		want["socket:["+in+"]"] = struct{}{}
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		fdDir := filepath.Join("/proc", e.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue // gone or not ours to read
		}
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if _, ok := want[link]; ok {
				return pid, nil
			}
		}
	}
	return 0, nil
}

// terminate sends SIGTERM and escalates to SIGKILL if the process survives
func terminate(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return err
	}
	for i := 0; i < 20; i++ {
		time.Sleep(100 * time.Millisecond)
		if err := syscall.Kill(pid, 0); err != nil {
			return nil // gone
		}
	}
	return syscall.Kill(pid, syscall.SIGKILL)
}
