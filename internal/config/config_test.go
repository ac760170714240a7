package config

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/faradayfan/mcserver-panel/internal/manager"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MCSERVER_DATA_DIR", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Poll() != 2*time.Second {
		t.Errorf("poll interval = %s, want 2s", cfg.Poll())
	}
	if cfg.RCONTimeout() != 800*time.Millisecond {
		t.Errorf("rcon timeout = %s, want 800ms", cfg.RCONTimeout())
	}
	if cfg.Paper.APIURL != DefaultPaperAPIURL {
		t.Errorf("paper api url = %q", cfg.Paper.APIURL)
	}
	if cfg.Creation.WriteProperties {
		t.Errorf("write_properties should default to false")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcserver.yaml")
	body := `
data_dir: /srv/minecraft
poll_interval: 5s
rcon:
  host: 10.0.0.2
creation:
  write_properties: true
launch:
  command: ./run.sh
  stop:
    type: signal
    signal: INT
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MCSERVER_RCON_HOST", "10.0.0.9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Poll() != 5*time.Second {
		t.Errorf("poll = %s, want 5s", cfg.Poll())
	}
	if cfg.RCON.Host != "10.0.0.9" {
		t.Errorf("rcon host = %q, want env override", cfg.RCON.Host)
	}
	if !cfg.Creation.WriteProperties {
		t.Errorf("write_properties not read from file")
	}
	// Keys absent from the file keep their defaults.
	if cfg.Paper.UserAgent != DefaultUserAgent {
		t.Errorf("user agent = %q", cfg.Paper.UserAgent)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad duration":  "poll_interval: soon\n",
		"negative poll": "poll_interval: -1s\n",
		"bad level":     "log_level: loud\n",
		"bad stop type": "launch:\n  command: java\n  stop:\n    type: kill\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mcserver.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %q", body)
			}
		})
	}
}

func TestConvertStop(t *testing.T) {
	cfg, err := ConvertStop("x", Stop{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != manager.StopStdin || cfg.StdinCommand != "stop\n" {
		t.Errorf("unexpected default stop config: %+v", cfg)
	}

	cfg, err = ConvertStop("x", Stop{Type: "signal", Signal: "hup", GracePeriod: "3s"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Signal != syscall.SIGHUP || cfg.GracePeriod != 3*time.Second {
		t.Errorf("unexpected signal stop config: %+v", cfg)
	}

	cfg, err = ConvertStop("x", Stop{Type: "stdin", Command: "save-all"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StdinCommand != "save-all\n" {
		t.Errorf("stdin command = %q", cfg.StdinCommand)
	}

	if _, err := ConvertStop("x", Stop{Type: "signal", Signal: "USR9"}); err == nil {
		t.Errorf("expected unsupported signal error")
	}
}
