//go:build !unix

package platform

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
