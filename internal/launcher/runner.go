// Copyright 2024 The Coupons Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launcher

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// Runner executes an invocation and blocks until the child exits. A nil error means the child exited with status 0,
// an *ExitError carries any other status and a *LaunchError means the child never started.
type Runner interface {
	Run(inv *Invocation) error
}

// ExecRunner is a Runner backed by os/exec. Nil streams fall back to the launcher's own standard streams, so the
// child inherits them directly.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Environ is the base environment of the child, os.Environ when nil.
	Environ func() []string
}

var _ Runner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(inv *Invocation) error {
	cmd := exec.Command(inv.Program, inv.Args...)
	environ := r.Environ
	if environ == nil {
		environ = os.Environ
	}
	cmd.Env = append(environ(), inv.Env...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = r.Stdin, r.Stdout, r.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		code := ExitCannotExecute
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			code = ExitNotFound
		}
		return &LaunchError{Program: inv.Program, Code: code, Err: err}
	}
	slog.Debug("Started child process", "pid", cmd.Process.Pid)

	stop := relaySignals(cmd.Process)
	err := cmd.Wait()
	stop()
	return waitError(err)
}

// relaySignals keeps interrupts from killing the launcher while the child runs. SIGTERM is passed on to the child,
// SIGINT is not since the terminal already delivers it to the whole foreground process group.
func relaySignals(p *os.Process) func() {
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			select {
			case sig := <-ch:
				if sig == syscall.SIGTERM {
					slog.Debug("Relaying signal to child process", "signal", sig.String())
					if err := p.Signal(sig); err != nil {
						slog.Warn("Failed to relay signal to child process", "signal", sig.String(), "err", err)
					}
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func waitError(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return err
	}
	code := ee.ExitCode()
	// match the shell, which reports 128+n for a child killed by signal n
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		code = 128 + int(ws.Signal())
	}
	return &ExitError{Code: code}
}
