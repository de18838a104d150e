/*
Coupons Compose
Copyright 2024 The Coupons Authors
*/
package command

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coupons/coupons-compose/internal/launcher"
	"github.com/coupons/coupons-compose/internal/project"
)

const (
	environmentFlag = "environment"
	verboseFlag     = "verbose"
)

var (
	rootCmd = &cobra.Command{
		Use:   "coupons-compose [-e env] [-v] [--] [compose args...]",
		Short: "Run docker compose for the coupons project",
		Long: `coupons-compose runs docker compose against the coupons compose file with a project name derived from the
selected environment. Every argument it does not recognise is passed through to docker compose unchanged and in
order. Use -- to pass arguments that would otherwise be read by coupons-compose itself.

The launcher exits with the exit code of docker compose.

Defaults can be changed per checkout in ` + project.DefaultRelativeStateDirectory + `/` + project.ConfigFileName + `.`,
		Example: `
  # start the local stack in the background
  coupons-compose up -d

  # rebuild and show what is run
  coupons-compose -v up --build

  # pass flags that coupons-compose would otherwise consume
  coupons-compose -- run api env -e`,
		Args:                  cobra.ArbitraryArgs,
		DisableFlagParsing:    true,
		DisableFlagsInUseLine: true,
		// errors and usage are printed by Execute, with the exit code of the child
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&environment, environmentFlag, "e", "", fmt.Sprintf("Environment to run (default %q)", project.DefaultProfile().DefaultEnvironment))
	rootCmd.Flags().BoolVarP(&verbose, verboseFlag, "v", false, "Print the parsed options and debug logs before running")
	// --environment and --verbose belong to docker compose
	for _, name := range []string{environmentFlag, verboseFlag} {
		if err := launcher.MarkShortOnly(rootCmd.Flags(), name); err != nil {
			panic(err)
		}
	}

	cobra.AddTemplateFunc("launcherFlagUsages", launcher.FlagUsages)
	rootCmd.SetUsageTemplate(usageTemplate)
}

const usageTemplate = `Usage:
  {{.UseLine}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{launcherFlagUsages .LocalFlags | trimTrailingWhitespaces}}{{end}}
`

// Execute runs the root command against the process arguments and returns the exit code to terminate with.
func Execute() int {
	return exitCode(rootCmd, rootCmd.Execute())
}

func exitCode(cmd *cobra.Command, err error) int {
	var invalid *launcher.InvalidOptionError
	var exited *launcher.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exited):
		// the child already reported its own failure
	case errors.As(err, &invalid):
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	default:
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return launcher.ExitCode(err)
}
