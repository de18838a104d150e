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

package command

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coupons/coupons-compose/internal/launcher"
	"github.com/coupons/coupons-compose/internal/logging"
	"github.com/coupons/coupons-compose/internal/project"
	"github.com/coupons/coupons-compose/internal/version"
)

var (
	environment string
	verbose     bool

	// newRunner builds the runner for the child process. The child shares the command's streams.
	newRunner = func(cmd *cobra.Command) launcher.Runner {
		return &launcher.ExecRunner{Stdin: cmd.InOrStdin(), Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	}
)

func run(cmd *cobra.Command, args []string) error {
	forwarded, err := launcher.Parse(cmd.Flags(), args)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetBool("help"); v {
		return cmd.Help()
	}
	logging.Configure(cmd.ErrOrStderr(), verbose)
	slog.Debug(fmt.Sprintf("coupons-compose %s", version.BuildVersionString()))

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	profile, loaded, err := project.LoadProfile(wd)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	} else if loaded {
		slog.Debug(fmt.Sprintf("Loaded profile '%s'", filepath.Join(project.DefaultRelativeStateDirectory, project.ConfigFileName)))
	}

	opts := launcher.Options{Environment: environment, Verbose: verbose}
	// an explicit -e "" is validated like any other value
	if !cmd.Flags().Changed(environmentFlag) {
		opts.Environment = profile.DefaultEnvironment
	}
	if err := opts.Validate(profile); err != nil {
		return err
	}

	inv, err := launcher.NewInvocation(profile, opts, forwarded)
	if err != nil {
		return fmt.Errorf("failed to build compose command: %w", err)
	}
	if opts.Verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "%+v %q\n", opts, forwarded)
	}
	slog.Debug(fmt.Sprintf("Running '%s'", inv.String()))

	return newRunner(cmd).Run(inv)
}
