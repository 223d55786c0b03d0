// Command msrunner is the indicator execution host: it resolves a script
// path against the in-process indicator registry, runs it over bars read
// from stdin, and writes exactly one JSON response object to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/evdnx/msengine/config"
	"github.com/evdnx/msengine/internal/indicator"
	"github.com/evdnx/msengine/internal/obslog"
	"github.com/evdnx/msengine/internal/runner"
	"github.com/evdnx/msengine/logger"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var settingsPath string
	var auditLogPath string

	root := &cobra.Command{
		Use:   "msrunner",
		Short: "Market structure indicator execution host",
		Long: `msrunner resolves a script path to an in-process indicator, runs it
against bars read from stdin, and writes one JSON result object to stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&settingsPath, "settings", "", "optional TOML settings file")
	root.PersistentFlags().StringVar(&auditLogPath, "audit-log", "msrunner-audit.log", "rotating invocation audit log path")

	root.AddCommand(newRunCmd(&settingsPath, &auditLogPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "msrunner v%s\n", version)
		},
	}
}

func newRunCmd(settingsPath, auditLogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script-path>",
		Short: "Run an indicator over bars read from stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeFatal(cmd, runner.ErrTypeUsage, runner.PhaseBootstrap, fmt.Errorf("usage: msrunner run <script-path>"))
			}
			return runIndicator(cmd, args[0], *settingsPath, *auditLogPath)
		},
	}
}

func runIndicator(cmd *cobra.Command, scriptPath, settingsPath, auditLogPath string) error {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return writeFatal(cmd, runner.ErrTypeUsage, runner.PhaseBootstrap, err)
	}

	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return writeFatal(cmd, runner.ErrTypeInput, runner.PhaseInputs, err)
	}

	log, err := logger.NewZapLogger()
	if err != nil {
		return writeFatal(cmd, runner.ErrTypeUsage, runner.PhaseBootstrap, err)
	}

	audit := obslog.New(obslog.DefaultConfig(auditLogPath))
	registry := indicator.NewRegistry(log)

	start := time.Now()
	resp := runner.Handle(registry, scriptPath, raw, settings.Mode())
	duration := time.Since(start)

	errType, errMsg := "", ""
	if resp.Error != nil {
		errType, errMsg = string(resp.Error.Type), resp.Error.Message
	}
	obslog.LogInvocation(audit, scriptPath, duration, resp.Ok, errType, errMsg)

	if resp.Ok {
		log.Info("indicator_invocation_complete", logger.String("script_path", scriptPath), logger.Duration("duration", duration))
	} else {
		log.Error("indicator_invocation_failed", logger.String("script_path", scriptPath), logger.String("error_type", errType), logger.String("error_message", errMsg))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(resp)
}

// writeFatal writes a failure response of the given type and phase for
// errors that happen before a request can even be parsed.
func writeFatal(cmd *cobra.Command, t runner.ErrorType, phase runner.Phase, err error) error {
	resp := runner.Response{
		Ok:         false,
		ApiVersion: runner.ApiVersion,
		Error: &runner.WireError{
			Type:    t,
			Message: err.Error(),
			Phase:   phase,
		},
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(resp)
}
