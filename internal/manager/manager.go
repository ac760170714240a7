package manager

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var (
	ErrAlreadyRunning = errors.New("already running")
	ErrNotRunning     = errors.New("not running")
)

func (m *Manager) Start(cfg ProcessConfig, logPath string) (ProcessState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.procs[cfg.Name]; ok && p.state.Running {
		return p.state, fmt.Errorf("%s %w (pid=%d)", cfg.Name, ErrAlreadyRunning, p.state.PID)
	}

	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Cwd
	cmd.Env = append(os.Environ(), cfg.Env...)

	// Own process group so stop signals reach the JVM and its children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		cancel()
		return ProcessState{}, fmt.Errorf("open log %q: %w", logPath, err)
	}
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		_ = logFile.Close()
		return ProcessState{}, err
	}

	if err := cmd.Start(); err != nil {
		cancel()
		_ = logFile.Close()
		return ProcessState{}, fmt.Errorf("start %s: %w", cfg.Name, err)
	}

	p := &managedProc{
		cfg:    cfg,
		cmd:    cmd,
		state:  ProcessState{Name: cfg.Name, Running: true, PID: cmd.Process.Pid, StartedAt: time.Now()},
		stdin:  bufio.NewWriter(stdinPipe),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.procs[cfg.Name] = p
	m.log.WithField("instance", cfg.Name).Infof("started pid=%d cmd=%s", p.state.PID, cfg.Command)

	go m.reap(p, logFile)

	return p.state, nil
}

func (m *Manager) reap(p *managedProc, logFile *os.File) {
	err := p.cmd.Wait()
	exitCode := 0
	if err != nil {
		exitCode = 1
		if ee := new(exec.ExitError); errors.As(err, &ee) {
			if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
				exitCode = ws.ExitStatus()
			}
		}
	}

	m.mu.Lock()
	p.state.Running = false
	p.state.ExitedAt = time.Now()
	p.state.ExitCode = exitCode
	if err != nil {
		p.state.LastError = err.Error()
	}
	m.mu.Unlock()

	_ = logFile.Close()
	p.cancel()
	close(p.done)
	m.log.WithField("instance", p.cfg.Name).Infof("exited code=%d", exitCode)
}

// Stop asks the process to exit using its StopConfig and escalates to
// SIGKILL on the process group once the grace period is over.
func (m *Manager) Stop(name string) (ProcessState, error) {
	m.mu.Lock()
	p, ok := m.procs[name]
	if !ok {
		m.mu.Unlock()
		return ProcessState{Name: name}, fmt.Errorf("%s %w", name, ErrNotRunning)
	}
	if !p.state.Running || p.cmd.Process == nil {
		state := p.state
		m.mu.Unlock()
		return state, fmt.Errorf("%s %w", name, ErrNotRunning)
	}

	stopCfg := p.cfg.Stop
	pid := p.cmd.Process.Pid
	m.mu.Unlock()

	switch stopCfg.Type {
	case StopStdin:
		if stopCfg.StdinCommand == "" {
			stopCfg.StdinCommand = "stop\n"
		}
		if err := m.SendCommand(name, stopCfg.StdinCommand); err != nil {
			m.log.WithField("instance", name).Warnf("stdin stop failed, signalling: %v", err)
			_ = syscall.Kill(-pid, syscall.SIGTERM)
		}

	case StopSignal:
		if stopCfg.Signal == 0 {
			stopCfg.Signal = syscall.SIGTERM
		}
		// negative pid: whole process group
		_ = syscall.Kill(-pid, stopCfg.Signal)

	default:
		_ = syscall.Kill(-pid, syscall.SIGTERM)
	}

	grace := stopCfg.GracePeriod
	if grace == 0 {
		grace = 10 * time.Second
	}

	select {
	case <-p.done:
		return m.Status(name), nil
	case <-time.After(grace):
	}

	m.log.WithField("instance", name).Warnf("grace period %s exceeded, killing pid=%d", grace, pid)
	_ = syscall.Kill(-pid, syscall.SIGKILL)

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
	}
	return m.Status(name), nil
}

// SendCommand writes one console line to the instance's stdin.
func (m *Manager) SendCommand(name, line string) error {
	m.mu.Lock()
	p, ok := m.procs[name]
	running := ok && p.state.Running
	m.mu.Unlock()
	if !running {
		return fmt.Errorf("%s %w", name, ErrNotRunning)
	}
	return m.writeStdin(p, line)
}

func (m *Manager) writeStdin(p *managedProc, line string) error {
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := p.stdin.WriteString(line); err != nil {
		return err
	}
	return p.stdin.Flush()
}

// IsRunning reports whether the manager owns a live process for name.
// The reaper normally keeps state accurate; the PID check covers a process
// that died between Wait returning and the state update.
func (m *Manager) IsRunning(name string) bool {
	m.mu.Lock()
	p, ok := m.procs[name]
	if !ok || !p.state.Running {
		m.mu.Unlock()
		return false
	}
	pid := p.state.PID
	m.mu.Unlock()
	return m.pidAlive(pid)
}

func (m *Manager) Status(name string) ProcessState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.procs[name]; ok {
		return p.state
	}
	return ProcessState{Name: name, Running: false}
}

func (m *Manager) List() []ProcessState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ProcessState, 0, len(m.procs))
	for _, p := range m.procs {
		out = append(out, p.state)
	}
	return out
}

func pidExists(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}
