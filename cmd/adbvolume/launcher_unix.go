//go:build unix

package main

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// childNice is the nice value requested for spawned children. Lowering nice
// below 0 needs CAP_SYS_NICE; without it the child keeps the default.
const childNice = -10

// configureDetached puts the child in its own process group so terminal
// signals aimed at us do not reach it.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func raisePriority(p *os.Process) {
	if p == nil {
		return
	}
	_ = unix.Setpriority(unix.PRIO_PROCESS, p.Pid, childNice)
}

// release hands the child to a reaper goroutine. Wait only collects the exit
// status so no zombie is left behind; nobody looks at it.
func release(cmd *exec.Cmd) {
	go func() {
		_ = cmd.Wait()
	}()
}
