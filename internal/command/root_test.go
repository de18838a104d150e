package command

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/coupons/coupons-compose/internal/launcher"
)

func TestRootHelp(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}, {"up", "--help"}} {
		r := withRecordingRunner(t)
		stdout, stderr, err := executeAndResetCommand(context.Background(), rootCmd, args)
		assert.NoError(t, err)
		assert.Contains(t, stdout, `coupons-compose runs docker compose against the coupons compose file with a project name derived from the
selected environment.`)
		assert.Contains(t, stdout, `Usage:
  coupons-compose [-e env] [-v] [--] [compose args...]
`)
		assert.Contains(t, stdout, "  coupons-compose -v up --build\n")
		assert.Regexp(t, `\n  -e string +Environment to run \(default "local"\)\n`, stdout)
		assert.Regexp(t, `\n  -h, --help +help for coupons-compose\n`, stdout)
		assert.Regexp(t, `\n  -v +Print the parsed options and debug logs before running\n`, stdout)
		assert.NotContains(t, stdout, "--environment")
		assert.NotContains(t, stdout, "--verbose")
		assert.Equal(t, "", stderr)
		assert.Len(t, r.calls, 0)
	}
}

func TestRootHelpAfterDoubleDash(t *testing.T) {
	r := withRecordingRunner(t)
	stdout, _, err := executeAndResetCommand(context.Background(), rootCmd, []string{"--", "up", "--help"})
	assert.NoError(t, err)
	assert.Equal(t, "", stdout)
	if assert.Len(t, r.calls, 1) {
		assert.Equal(t, []string{"compose", "-f", "./docker/docker-compose.yaml", "-p", "coupons_local", "up", "--help"}, r.calls[0].Args)
	}
}

func TestRootNoVersionFlag(t *testing.T) {
	r := withRecordingRunner(t)
	_, _, err := executeAndResetCommand(context.Background(), rootCmd, []string{"--version"})
	assert.NoError(t, err)
	if assert.Len(t, r.calls, 1) {
		assert.Equal(t, "--version", r.calls[0].Args[len(r.calls[0].Args)-1])
	}
}

func TestExitCode(t *testing.T) {
	newCmd := func() (*cobra.Command, *bytes.Buffer) {
		buff := new(bytes.Buffer)
		cmd := &cobra.Command{Use: "coupons-compose", Run: func(*cobra.Command, []string) {}}
		cmd.SetErr(buff)
		return cmd, buff
	}

	cmd, buff := newCmd()
	assert.Equal(t, 0, exitCode(cmd, nil))
	assert.Equal(t, "", buff.String())

	cmd, buff = newCmd()
	assert.Equal(t, 9, exitCode(cmd, &launcher.ExitError{Code: 9}))
	assert.Equal(t, "", buff.String())

	cmd, buff = newCmd()
	assert.Equal(t, 2, exitCode(cmd, &launcher.InvalidOptionError{Flag: "-e", Value: "prod", Allowed: []string{"local"}}))
	assert.True(t, strings.HasPrefix(buff.String(), "Error: argument -e: invalid choice 'prod' (choose from 'local')\nUsage:\n"), buff.String())

	cmd, buff = newCmd()
	assert.Equal(t, 127, exitCode(cmd, &launcher.LaunchError{Program: "docker", Code: 127}))
	assert.Equal(t, "Error: docker: command not found\n", buff.String())

	cmd, buff = newCmd()
	assert.Equal(t, 1, exitCode(cmd, errors.New("failed to load profile: boom")))
	assert.Equal(t, "Error: failed to load profile: boom\n", buff.String())
}
