package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/faradayfan/mcserver-panel/internal/app"
	"github.com/faradayfan/mcserver-panel/internal/bridge"
	"github.com/faradayfan/mcserver-panel/internal/config"
	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

type cli struct {
	cfgPath string
	url     string
	timeout time.Duration
}

func main() {
	c := &cli{}

	root := &cobra.Command{
		Use:          "mcserverctl",
		Short:        "Scriptable client for mcserver hosts",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", config.DefaultPath(), "path to mcserver.yaml")
	root.PersistentFlags().StringVar(&c.url, "url", "", "bridge url (default: bridge.url, else in-process host)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 15*time.Second, "per-command timeout")

	root.AddCommand(
		c.listCmd(),
		c.statusCmd(),
		c.startCmd(),
		c.stopCmd(),
		c.createCmd(),
		c.versionsCmd(),
		c.openCmd(),
		c.historyCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// run connects to the host and calls fn with a bounded context.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, h *bridge.Host) (any, error)) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	cfg.SetupLogging()
	if c.url != "" {
		cfg.Bridge.URL = c.url
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	inv, closer, err := app.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	out, err := fn(ctx, bridge.NewHost(inv))
	if err != nil {
		return err
	}
	if out != nil {
		return printJSON(cmd, out)
	}
	return nil
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instance folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				return h.DataFolderList(ctx)
			})
		},
	}
}

type instanceStatus struct {
	Name        string `json:"name"`
	Running     bool   `json:"running"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <instance>",
		Short: "Show liveness, version and description of an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				name := args[0]
				running, err := h.IsServerRunning(ctx, name)
				if err != nil {
					return nil, err
				}
				version, err := h.ServerVersion(ctx, name)
				if err != nil {
					return nil, err
				}
				desc, err := h.Description(ctx, name)
				if err != nil {
					return nil, err
				}
				return instanceStatus{Name: name, Running: running, Version: version, Description: desc}, nil
			})
		},
	}
}

func (c *cli) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <instance>",
		Short: "Start an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				return nil, h.OpenServer(ctx, args[0])
			})
		},
	}
}

func (c *cli) stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <instance>",
		Short: "Stop an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				return nil, h.StopServer(ctx, args[0])
			})
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	props := protocol.ServerProperties{}
	var write bool

	cmd := &cobra.Command{
		Use:   "create <instance> [key=value ...]",
		Short: "Create an instance folder, optionally writing server.properties",
		Long: strings.TrimSpace(`
Create an instance folder. With --properties, server.properties is written
from the flags below; extra key=value arguments are ignored unless they name
one of those flags.`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				name := strings.TrimSpace(args[0])
				if err := h.CreateDataFolder(ctx, name); err != nil {
					return nil, err
				}
				if !write {
					return nil, nil
				}
				props.FolderName = name
				if err := applyKeyValues(&props, parseKeyValues(args[1:])); err != nil {
					return nil, err
				}
				return nil, h.WriteServerProperties(ctx, props)
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&write, "properties", false, "write server.properties")
	f.StringVar(&props.Description, "description", "A Minecraft Server", "motd")
	f.StringVar(&props.Version, "version", "", "paper version")
	f.IntVar(&props.MaxPlayers, "max-players", 20, "max players")
	f.StringVar(&props.Difficulty, "difficulty", "normal", "peaceful, easy, normal or hard")
	f.BoolVar(&props.Whitelist, "whitelist", false, "enable the whitelist")
	f.BoolVar(&props.Cracked, "cracked", false, "disable online mode")
	f.BoolVar(&props.AllowFlight, "allow-flight", false, "allow flight")
	f.BoolVar(&props.ForceGamemode, "force-gamemode", false, "force gamemode")
	f.IntVar(&props.SpawnProtection, "spawn-protection", 16, "spawn protection radius")
	return cmd
}

func (c *cli) versionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List available Paper versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				return h.PaperVersions(ctx)
			})
		},
	}
}

func (c *cli) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <instance>",
		Short: "Open the instance folder on the host desktop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				return nil, h.OpenFolder(ctx, args[0])
			})
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <instance>",
		Short: "Show recent start/stop/create actions for an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, h *bridge.Host) (any, error) {
				return h.ActionHistory(ctx, args[0], limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
