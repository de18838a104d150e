package launcher

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test, it stands in for the compose tool when re-executed by helperInvocation.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("COUPONS_COMPOSE_HELPER") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	fmt.Fprintf(os.Stdout, "%s buildkit=%s\n", strings.Join(args, " "), os.Getenv("DOCKER_BUILDKIT"))
	if len(args) > 0 && args[len(args)-1] == "sigterm" {
		_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
		time.Sleep(time.Minute)
	}
	code := 0
	if len(args) > 0 {
		code, _ = strconv.Atoi(args[len(args)-1])
	}
	os.Exit(code)
}

func helperInvocation(args ...string) *Invocation {
	return &Invocation{
		Env:     []string{"COUPONS_COMPOSE_HELPER=1", "DOCKER_BUILDKIT=1"},
		Program: os.Args[0],
		Args:    append([]string{"-test.run=TestHelperProcess", "--"}, args...),
	}
}

func TestExecRunner_success(t *testing.T) {
	stdout := new(bytes.Buffer)
	r := &ExecRunner{Stdin: strings.NewReader(""), Stdout: stdout, Stderr: new(bytes.Buffer)}
	require.NoError(t, r.Run(helperInvocation("compose", "up", "0")))
	assert.Equal(t, "compose up 0 buildkit=1\n", stdout.String())
}

func TestExecRunner_exit_code(t *testing.T) {
	stdout := new(bytes.Buffer)
	r := &ExecRunner{Stdin: strings.NewReader(""), Stdout: stdout, Stderr: new(bytes.Buffer)}
	err := r.Run(helperInvocation("compose", "down", "3"))
	var exited *ExitError
	require.ErrorAs(t, err, &exited)
	assert.Equal(t, 3, exited.Code)
	assert.Equal(t, 3, ExitCode(err))
	assert.Equal(t, "compose down 3 buildkit=1\n", stdout.String())
}

func TestExecRunner_environ(t *testing.T) {
	stdout := new(bytes.Buffer)
	r := &ExecRunner{
		Stdin:   strings.NewReader(""),
		Stdout:  stdout,
		Stderr:  new(bytes.Buffer),
		Environ: func() []string { return []string{"DOCKER_BUILDKIT=0"} },
	}
	require.NoError(t, r.Run(helperInvocation("0")))
	// later entries win, so the invocation overrides the inherited environment
	assert.Equal(t, "0 buildkit=1\n", stdout.String())
}

func TestExecRunner_not_found(t *testing.T) {
	r := &ExecRunner{Stdin: strings.NewReader(""), Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)}
	err := r.Run(&Invocation{Program: "coupons-compose-definitely-missing", Args: []string{"compose"}})
	var launch *LaunchError
	require.ErrorAs(t, err, &launch)
	assert.Equal(t, ExitNotFound, launch.Code)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.EqualError(t, err, "coupons-compose-definitely-missing: command not found")
	assert.Equal(t, 127, ExitCode(err))
}

func TestExecRunner_killed_by_signal(t *testing.T) {
	r := &ExecRunner{Stdin: strings.NewReader(""), Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)}
	err := r.Run(helperInvocation("compose", "up", "sigterm"))
	var exited *ExitError
	require.ErrorAs(t, err, &exited)
	assert.Equal(t, 128+int(syscall.SIGTERM), exited.Code)
	assert.Equal(t, 143, ExitCode(err))
}

func TestExecRunner_cannot_execute(t *testing.T) {
	program := filepath.Join(t.TempDir(), "docker")
	require.NoError(t, os.WriteFile(program, []byte("#!/bin/sh\nexit 0\n"), 0644))

	r := &ExecRunner{Stdin: strings.NewReader(""), Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)}
	err := r.Run(&Invocation{Program: program, Args: []string{"compose"}})
	var launch *LaunchError
	require.ErrorAs(t, err, &launch)
	assert.Equal(t, ExitCannotExecute, launch.Code)
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.EqualError(t, err, program+": cannot execute: "+launch.Err.Error())
	assert.Equal(t, 126, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 42, ExitCode(fmt.Errorf("wrapped: %w", &ExitError{Code: 42})))
	assert.Equal(t, 126, ExitCode(&LaunchError{Program: "docker", Code: 126, Err: os.ErrPermission}))
	assert.Equal(t, 2, ExitCode(&InvalidOptionError{Reason: "bad"}))
}
