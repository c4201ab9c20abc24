// Command nwpwifi drives the Wi-Fi manager against a simulated network
// co-processor. Configuration is read from nwpwifi.yaml in the working
// directory, or the file named by --config, with NWPWIFI_* environment
// overrides.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soypat/nwpwifi/internal/wlog"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	logger     *slog.Logger
	logCloser  io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "nwpwifi",
	Short:         "Manage the Wi-Fi interface of a network co-processor",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(v, configPath); err != nil {
			return err
		}
		level, err := wlog.ParseLevel(v.GetString("log.level"))
		if err != nil {
			return err
		}
		logger, logCloser = wlog.New(wlog.Config{
			Level: level,
			File:  v.GetString("log.file"),
			Name:  "nwpwifi",
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config `file` (default ./nwpwifi.yaml)")
	pf.StringP("log-level", "l", "info", "log level: trace, debug, info, warn or error")
	pf.String("log-file", "", "write rotated JSON logs to `file`")
	pf.String("db", "nwpwifi.db", "configuration database `path`")
	v.BindPFlag("log.level", pf.Lookup("log-level"))
	v.BindPFlag("log.file", pf.Lookup("log-file"))
	v.BindPFlag("db.path", pf.Lookup("db"))

	rootCmd.AddCommand(runCmd, staCmd, apCmd, scanCmd, statusCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nwpwifi:", err)
		os.Exit(1)
	}
}
