package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/faradayfan/mcserver-panel/internal/app"
	"github.com/faradayfan/mcserver-panel/internal/bridge"
	"github.com/faradayfan/mcserver-panel/internal/config"
	"github.com/faradayfan/mcserver-panel/internal/tui"
)

func main() {
	var (
		cfgPath string
		url     string
	)

	root := &cobra.Command{
		Use:          "mcserver",
		Short:        "Manage local Minecraft servers from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Bridge.URL = url
			}

			cfg.SetupLogging()
			logFile, err := logToFile(cfg)
			if err != nil {
				return err
			}
			defer logFile.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			inv, closer, err := app.Connect(ctx, cfg)
			cancel()
			if err != nil {
				return err
			}
			defer closer.Close()

			opts := tui.Options{
				PollInterval:    cfg.Poll(),
				WriteProperties: cfg.Creation.WriteProperties,
			}
			if cfg.Bridge.URL == "" {
				opts.DataDir = cfg.DataDir
			}
			if n, ok := inv.(bridge.Notifier); ok {
				opts.Subscribe = n.NotifyInstanceListChanged
			}
			return tui.Run(bridge.NewHost(inv), opts)
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultPath(), "path to mcserver.yaml")
	root.Flags().StringVar(&url, "url", "", "bridge url of a running mcserverd (default: in-process host)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// logToFile sends logs to <log_dir>/mcserver.log so they do not draw over
// the terminal UI.
func logToFile(cfg *config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.LogDir, "mcserver.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	return f, nil
}
