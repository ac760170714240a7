// Package app assembles the host runtime and bridges from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/audit"
	"github.com/faradayfan/mcserver-panel/internal/auth"
	"github.com/faradayfan/mcserver-panel/internal/bridge"
	"github.com/faradayfan/mcserver-panel/internal/config"
	"github.com/faradayfan/mcserver-panel/internal/control"
	"github.com/faradayfan/mcserver-panel/internal/host"
	"github.com/faradayfan/mcserver-panel/internal/manager"
	"github.com/faradayfan/mcserver-panel/internal/paper"
	"github.com/faradayfan/mcserver-panel/internal/rcon"
)

// Host is a host runtime with its audit log and command handler.
type Host struct {
	Runtime *host.Runtime
	Handler *control.Handler

	audit *audit.Log
}

func OpenHost(cfg *config.Config) (*Host, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.AuditDB), 0755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	al, err := audit.Open(cfg.AuditDB)
	if err != nil {
		return nil, err
	}

	rt := host.NewRuntime(
		manager.NewManager(),
		cfg.Launch,
		rcon.NewClient(cfg.RCON.Host, cfg.RCONTimeout()),
		paper.NewClient(cfg.Paper.APIURL, cfg.Paper.UserAgent),
		al,
		cfg.DataDir,
		cfg.LogDir,
	)
	if err := rt.EnsureDataDir(); err != nil {
		_ = al.Close()
		return nil, err
	}

	logrus.WithField("component", "app").Infof("host runtime at %s", cfg.DataDir)
	return &Host{Runtime: rt, Handler: control.NewHandler(rt), audit: al}, nil
}

func (h *Host) Close() error {
	return h.audit.Close()
}

// BridgeServer serves h over websocket, authenticating with the configured
// secret when there is one. Connected clients are told when instances are
// created, whichever client created them.
func (h *Host) BridgeServer(cfg *config.Config) *bridge.Server {
	var signer *auth.Signer
	if cfg.Bridge.Secret != "" {
		signer = auth.NewSigner(cfg.Bridge.Secret)
	}
	srv := bridge.NewServer(h.Handler, signer)
	h.Handler.AddListChangedHook(srv.InstanceListChanged)
	return srv
}

// Connect returns a bridge to the configured host: the daemon at
// bridge.url, or an in-process runtime when no url is set.
func Connect(ctx context.Context, cfg *config.Config) (bridge.Invoker, io.Closer, error) {
	if cfg.Bridge.URL == "" {
		h, err := OpenHost(cfg)
		if err != nil {
			return nil, nil, err
		}
		return bridge.NewLocal(h.Handler), h, nil
	}

	var opts []bridge.DialOption
	if cfg.Bridge.Secret != "" {
		opts = append(opts, bridge.WithToken(auth.NewSigner(cfg.Bridge.Secret), cfg.Bridge.ClientName))
	}
	d := bridge.NewRedialer(cfg.Bridge.URL, opts...)

	// Fail fast on a wrong url or secret.
	var folders []string
	if err := d.Invoke(ctx, "get_data_folder_list", nil, &folders); err != nil {
		_ = d.Close()
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Bridge.URL, err)
	}
	return d, d, nil
}
