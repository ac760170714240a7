package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/faradayfan/mcserver-panel/internal/api"
	"github.com/faradayfan/mcserver-panel/internal/app"
	"github.com/faradayfan/mcserver-panel/internal/config"
)

func main() {
	var (
		cfgPath string
		addr    string
	)

	root := &cobra.Command{
		Use:          "mcserverd",
		Short:        "Host daemon serving the mcserver bridge and REST API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg.SetupLogging()
			if addr != "" {
				cfg.ListenAddr = addr
			}
			return serve(cfg)
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultPath(), "path to mcserver.yaml")
	root.Flags().StringVar(&addr, "listen", "", "listen address (overrides listen_addr)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	log := logrus.WithField("component", "mcserverd")

	h, err := app.OpenHost(cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	if cfg.Bridge.Secret == "" {
		log.Warn("bridge.secret is empty, accepting unauthenticated clients")
	}

	a := api.NewServer(h.Runtime, h.BridgeServer(cfg), cfg.ListenAddr)
	httpSrv := &http.Server{
		Addr:              a.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on http://%s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infof("received %v, shutting down (running servers keep running)", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	log.Info("stopped cleanly")
	return nil
}
