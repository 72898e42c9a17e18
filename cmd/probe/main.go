// Command probe verifies a running nabla service by submitting
// differentiation tasks and checking the results.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tangentlab/nabla/internal/probe"
	"github.com/tangentlab/nabla/pkg/logger"
)

const version = "0.3.0"

const (
	defaultWorkers = 4
	defaultTimeout = 30 * time.Second
)

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "probe verifies a running nabla differentiation service",
	Long: "probe submits differentiation tasks to a nabla service, waits for\n" +
		"the results, and compares them against expected derivatives from a\n" +
		"YAML suite (or a built-in suite when none is given).",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("probe: run 'probe run' to execute a suite, or 'probe --help'")
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a verification suite against a service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		url, _ := cmd.Flags().GetString("url")
		suite, _ := cmd.Flags().GetString("suite")
		workers, _ := cmd.Flags().GetInt("workers")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		verbose, _ := cmd.Flags().GetBool("verbose")

		_, err := probe.Run(context.Background(), probe.Config{
			BaseURL:   url,
			SuitePath: suite,
			Workers:   workers,
			Timeout:   timeout,
			Verbose:   verbose,
		})
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the probe version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("probe " + version)
	},
}

func init() {
	runCmd.Flags().String("url", "http://localhost:9090", "base URL of the service")
	runCmd.Flags().String("suite", "", "path to a YAML suite file (default: built-in suite)")
	runCmd.Flags().Int("workers", defaultWorkers, "number of concurrent case runners")
	runCmd.Flags().Duration("timeout", defaultTimeout, "overall run timeout")
	runCmd.Flags().Bool("verbose", false, "log passing cases too")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
