package config

import "time"

// Config matches the shape of mcserver.yaml
type Config struct {
	DataDir      string   `yaml:"data_dir"`
	LogDir       string   `yaml:"log_dir"`
	AuditDB      string   `yaml:"audit_db"`
	LogLevel     string   `yaml:"log_level"`
	PollInterval string   `yaml:"poll_interval"` // e.g. "2s"
	ListenAddr   string   `yaml:"listen_addr"`
	Bridge       Bridge   `yaml:"bridge"`
	RCON         RCON     `yaml:"rcon"`
	Paper        Paper    `yaml:"paper"`
	Launch       Launch   `yaml:"launch"`
	Creation     Creation `yaml:"creation"`

	poll        time.Duration
	rconTimeout time.Duration
}

// Bridge configures how front-ends reach the host runtime.
type Bridge struct {
	URL        string `yaml:"url"`    // ws://host:port/bridge; empty = in-process host
	Secret     string `yaml:"secret"` // HS256 shared secret; empty = no auth
	ClientName string `yaml:"client_name"`
}

type RCON struct {
	Host    string `yaml:"host"`
	Timeout string `yaml:"timeout"`
}

type Paper struct {
	APIURL    string `yaml:"api_url"`
	UserAgent string `yaml:"user_agent"`
}

// Launch is the command used to run an instance that has no start script.
type Launch struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Env     []string `yaml:"env"`
	Stop    Stop     `yaml:"stop"`
}

// Stop defines how to stop the server
type Stop struct {
	Type        string `yaml:"type"`         // "stdin" or "signal"
	Command     string `yaml:"command"`      // for stdin stop (e.g. "stop\n")
	Signal      string `yaml:"signal"`       // for signal stop (e.g. "SIGTERM")
	GracePeriod string `yaml:"grace_period"` // e.g. "15s"
}

type Creation struct {
	// WriteProperties sends the full creation form to the host instead of
	// only the folder name.
	WriteProperties bool `yaml:"write_properties"`
}

func (c *Config) Poll() time.Duration        { return c.poll }
func (c *Config) RCONTimeout() time.Duration { return c.rconTimeout }
