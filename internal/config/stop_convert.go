package config

import (
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/faradayfan/mcserver-panel/internal/manager"
)

// ConvertStop turns the YAML stop block into a manager.StopConfig.
// Defaults to typing "stop" on the console, which every Paper build honours.
func ConvertStop(owner string, s Stop) (manager.StopConfig, error) {
	cfg := manager.StopConfig{
		Type:         manager.StopStdin,
		StdinCommand: "stop\n",
		Signal:       syscall.SIGTERM,
		GracePeriod:  30 * time.Second,
	}

	if strings.TrimSpace(s.Type) != "" {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "stdin":
			cfg.Type = manager.StopStdin
		case "signal":
			cfg.Type = manager.StopSignal
		default:
			return manager.StopConfig{}, fmt.Errorf("%s has invalid stop.type %q (expected stdin|signal)", owner, s.Type)
		}
	}

	if strings.TrimSpace(s.GracePeriod) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(s.GracePeriod))
		if err != nil {
			return manager.StopConfig{}, fmt.Errorf("%s has invalid stop.grace_period %q: %w", owner, s.GracePeriod, err)
		}
		cfg.GracePeriod = d
	}

	if cfg.Type == manager.StopStdin {
		if strings.TrimSpace(s.Command) != "" {
			cmd := s.Command
			if !strings.HasSuffix(cmd, "\n") {
				cmd += "\n"
			}
			cfg.StdinCommand = cmd
		}
		return cfg, nil
	}

	if strings.TrimSpace(s.Signal) != "" {
		sig, err := parseSignal(s.Signal)
		if err != nil {
			return manager.StopConfig{}, fmt.Errorf("%s has invalid stop.signal %q: %w", owner, s.Signal, err)
		}
		cfg.Signal = sig
	}

	return cfg, nil
}

func parseSignal(s string) (syscall.Signal, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(u, "SIG") {
		u = "SIG" + u
	}

	switch u {
	case "SIGTERM":
		return syscall.SIGTERM, nil
	case "SIGINT":
		return syscall.SIGINT, nil
	case "SIGKILL":
		return syscall.SIGKILL, nil
	case "SIGHUP":
		return syscall.SIGHUP, nil
	case "SIGQUIT":
		return syscall.SIGQUIT, nil
	default:
		return 0, fmt.Errorf("unsupported signal %q (try SIGTERM, SIGINT, SIGKILL, SIGHUP, SIGQUIT)", s)
	}
}
