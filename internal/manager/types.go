package manager

import (
	"bufio"
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

type StopType string

const (
	StopSignal StopType = "signal"
	StopStdin  StopType = "stdin"
)

type StopConfig struct {
	Type         StopType
	Signal       syscall.Signal // used if Type=signal
	StdinCommand string         // used if Type=stdin
	GracePeriod  time.Duration  // how long before SIGKILL
}

// ProcessConfig describes how to launch one instance.
type ProcessConfig struct {
	Name    string
	Command string
	Args    []string
	Cwd     string
	Env     []string
	Stop    StopConfig
}

type ProcessState struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	ExitedAt  time.Time `json:"exited_at,omitempty"`
	ExitCode  int       `json:"exit_code,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

type managedProc struct {
	cfg   ProcessConfig
	cmd   *exec.Cmd
	state ProcessState

	stdin  *bufio.Writer
	cancel context.CancelFunc
	done   chan struct{}
}

type Manager struct {
	mu    sync.Mutex
	procs map[string]*managedProc
	log   *logrus.Entry

	// pidAlive is swapped in tests.
	pidAlive func(pid int) bool
}

func NewManager() *Manager {
	return &Manager{
		procs:    map[string]*managedProc{},
		log:      logrus.WithField("component", "manager"),
		pidAlive: pidExists,
	}
}
