//go:build windows

package main

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureDetached hides the child's window and gives it no console.
// The priority class is set at creation time on Windows.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW | windows.HIGH_PRIORITY_CLASS,
	}
}

func raisePriority(*os.Process) {}

// release closes the process handle right after creation.
func release(cmd *exec.Cmd) {
	_ = cmd.Process.Release()
}
