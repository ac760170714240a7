package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/audit"
	"github.com/faradayfan/mcserver-panel/internal/config"
	"github.com/faradayfan/mcserver-panel/internal/manager"
	"github.com/faradayfan/mcserver-panel/internal/protocol"
	"github.com/faradayfan/mcserver-panel/internal/rcon"
)

// ErrInvalidFolder is returned for names that would escape the data directory.
var ErrInvalidFolder = errors.New("invalid folder name")

// Recorder is the part of the audit log the runtime writes to.
type Recorder interface {
	Record(folder, action string, actionErr error) error
	ForFolder(folder string, limit int) ([]audit.Event, error)
}

// VersionSource lists installable server versions.
type VersionSource interface {
	Versions(ctx context.Context) ([]string, error)
}

// Runtime owns the data directory and every instance folder inside it.
type Runtime struct {
	Mgr    *manager.Manager
	Launch config.Launch
	RCON   *rcon.Client
	Paper  VersionSource
	Audit  Recorder
	Store  *Store

	DataDir string
	LogDir  string

	// OpenPath shows a directory in the desktop file manager.
	OpenPath func(path string) error

	props *propsCache
	log   *logrus.Entry
}

func NewRuntime(
	mgr *manager.Manager,
	launch config.Launch,
	rc *rcon.Client,
	versions VersionSource,
	rec Recorder,
	dataDir string,
	logDir string,
) *Runtime {
	if logDir == "" {
		logDir = filepath.Join(dataDir, ".logs")
	}
	return &Runtime{
		Mgr:      mgr,
		Launch:   launch,
		RCON:     rc,
		Paper:    versions,
		Audit:    rec,
		Store:    NewStore(dataDir),
		DataDir:  dataDir,
		LogDir:   logDir,
		OpenPath: openInFileManager,
		props:    newPropsCache(128),
		log:      logrus.WithField("component", "host"),
	}
}

// EnsureDataDir creates the data directory if it does not exist yet.
func (r *Runtime) EnsureDataDir() error {
	if err := os.MkdirAll(r.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir %q: %w", r.DataDir, err)
	}
	return nil
}

func (r *Runtime) InstanceDir(name string) string {
	return filepath.Join(r.DataDir, name)
}

func (r *Runtime) LogPath(name string) string {
	return filepath.Join(r.LogDir, fmt.Sprintf("%s.log", name))
}

func validFolder(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidFolder)
	case strings.HasPrefix(name, "."):
		// dot-directories are hidden from the folder list
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidFolder, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFolder, name)
	}
	return nil
}

// Exists reports whether folder is an instance directory.
func (r *Runtime) Exists(folder string) bool {
	if validFolder(folder) != nil {
		return false
	}
	fi, err := os.Stat(r.InstanceDir(folder))
	return err == nil && fi.IsDir()
}

// FolderList returns the instance folders in the data directory, sorted.
// Plain files and dot-directories are skipped.
func (r *Runtime) FolderList() ([]string, error) {
	if err := r.EnsureDataDir(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.DataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// ServerVersion lists <folder>/versions. When the server has not been run yet
// the version chosen at creation time is used instead.
func (r *Runtime) ServerVersion(folder string) (string, error) {
	if err := validFolder(folder); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(filepath.Join(r.InstanceDir(folder), "versions"))
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("read versions of %s: %w", folder, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) > 0 {
		return strings.Join(names, ", "), nil
	}

	meta, err := r.Store.Load(folder)
	if err != nil {
		return "", err
	}
	return meta.Version, nil
}

// Description is the motd from server.properties, "" when absent.
func (r *Runtime) Description(folder string) (string, error) {
	if err := validFolder(folder); err != nil {
		return "", err
	}
	return r.motd(folder)
}

func (r *Runtime) CreateFolder(folder string) (err error) {
	defer func() { r.record(folder, audit.ActionCreate, err) }()

	if err := validFolder(folder); err != nil {
		return err
	}
	if err := r.EnsureDataDir(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.InstanceDir(folder), 0755); err != nil {
		return fmt.Errorf("create %s: %w", folder, err)
	}

	meta, err := r.Store.Load(folder)
	if err != nil {
		return err
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
		if err := r.Store.Save(folder, meta); err != nil {
			return err
		}
	}

	r.log.WithField("instance", folder).Info("created instance folder")
	return nil
}

// WriteProperties stores the creation form in server.properties and the
// selected version in the instance metadata.
func (r *Runtime) WriteProperties(req protocol.ServerProperties) (err error) {
	defer func() { r.record(req.FolderName, audit.ActionWriteConfig, err) }()

	if err := validFolder(req.FolderName); err != nil {
		return err
	}
	if _, err := os.Stat(r.InstanceDir(req.FolderName)); err != nil {
		return fmt.Errorf("instance %s: %w", req.FolderName, err)
	}
	if err := r.writeProperties(req); err != nil {
		return err
	}

	if req.Version != "" {
		meta, err := r.Store.Load(req.FolderName)
		if err != nil {
			return err
		}
		meta.Version = req.Version
		if err := r.Store.Save(req.FolderName, meta); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) OpenFolder(folder string) error {
	if err := validFolder(folder); err != nil {
		return err
	}
	dir := r.InstanceDir(folder)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("instance %s: %w", folder, err)
	}
	if r.OpenPath == nil {
		return fmt.Errorf("opening folders is not supported here")
	}
	return r.OpenPath(dir)
}

// OpenServer launches the instance in the background.
func (r *Runtime) OpenServer(folder string) (err error) {
	defer func() { r.record(folder, audit.ActionStart, err) }()

	if err := validFolder(folder); err != nil {
		return err
	}
	cfg, logPath, err := r.ResolveConfig(folder)
	if err != nil {
		return err
	}
	_, err = r.Mgr.Start(cfg, logPath)
	return err
}

// StopServer prefers rcon "stop" and falls back to the manager's stop.
func (r *Runtime) StopServer(ctx context.Context, folder string) (err error) {
	defer func() { r.record(folder, audit.ActionStop, err) }()

	if err := validFolder(folder); err != nil {
		return err
	}

	ep, err := r.rconEndpoint(folder)
	if err != nil {
		return err
	}
	if ep.Enabled() && r.RCON != nil {
		_, rerr := r.RCON.Exec(ctx, ep, "stop")
		if rerr == nil {
			return nil
		}
		r.log.WithField("instance", folder).Debugf("rcon stop failed: %v", rerr)
	}

	if r.Mgr.IsRunning(folder) {
		_, err := r.Mgr.Stop(folder)
		return err
	}
	if ep.Enabled() {
		return fmt.Errorf("%s: not managed here and rcon did not answer", folder)
	}
	return nil
}

// IsRunning is true when the process is ours and alive, or when the
// instance answers on rcon.
func (r *Runtime) IsRunning(ctx context.Context, folder string) (bool, error) {
	if err := validFolder(folder); err != nil {
		return false, err
	}
	if r.Mgr.IsRunning(folder) {
		return true, nil
	}
	if r.RCON == nil {
		return false, nil
	}

	ep, err := r.rconEndpoint(folder)
	if err != nil {
		return false, err
	}
	if !ep.Enabled() {
		return false, nil
	}
	return r.RCON.Ping(ctx, ep), nil
}

func (r *Runtime) PaperVersions(ctx context.Context) ([]string, error) {
	if r.Paper == nil {
		return nil, fmt.Errorf("no version source configured")
	}
	return r.Paper.Versions(ctx)
}

func (r *Runtime) History(folder string, limit int) ([]protocol.HistoryEntry, error) {
	if err := validFolder(folder); err != nil {
		return nil, err
	}
	if r.Audit == nil {
		return []protocol.HistoryEntry{}, nil
	}
	events, err := r.Audit.ForFolder(folder, limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", folder, err)
	}
	out := make([]protocol.HistoryEntry, 0, len(events))
	for _, e := range events {
		out = append(out, protocol.HistoryEntry{
			ID:        e.ID,
			Folder:    e.Folder,
			Action:    e.Action,
			OK:        e.OK,
			Error:     e.Error,
			Timestamp: e.Time(),
		})
	}
	return out, nil
}

func (r *Runtime) record(folder, action string, actionErr error) {
	if r.Audit == nil {
		return
	}
	if err := r.Audit.Record(folder, action, actionErr); err != nil {
		r.log.WithField("instance", folder).Warnf("audit %s: %v", action, err)
	}
}

// ResolveConfig builds the process definition for folder. A start.sh in the
// folder wins; otherwise the launch template is rendered.
func (r *Runtime) ResolveConfig(folder string) (manager.ProcessConfig, string, error) {
	dir := r.InstanceDir(folder)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return manager.ProcessConfig{}, "", fmt.Errorf("unknown instance: %s", folder)
	}
	if err := os.MkdirAll(r.LogDir, 0755); err != nil {
		return manager.ProcessConfig{}, "", fmt.Errorf("ensure log dir: %w", err)
	}

	logPath := r.LogPath(folder)

	stopCfg, err := config.ConvertStop(folder, r.Launch.Stop)
	if err != nil {
		return manager.ProcessConfig{}, "", err
	}

	cfg := manager.ProcessConfig{
		Name: folder,
		Cwd:  dir,
		Stop: stopCfg,
	}

	for _, script := range []string{"start.sh", "Start.sh"} {
		if _, err := os.Stat(filepath.Join(dir, script)); err == nil {
			cfg.Command = "sh"
			cfg.Args = []string{script}
			cfg.Env = r.Launch.Env
			return cfg, logPath, nil
		}
	}

	meta, err := r.Store.Load(folder)
	if err != nil {
		return manager.ProcessConfig{}, "", err
	}

	command, args := r.Launch.Command, r.Launch.Args
	if meta.Command != "" {
		command, args = meta.Command, meta.Args
	}

	ctx := map[string]string{
		"instance_name": folder,
		"instance_dir":  dir,
		"log_path":      logPath,
		"version":       meta.Version,
	}

	cfg.Command, err = render(command, ctx)
	if err != nil {
		return manager.ProcessConfig{}, "", fmt.Errorf("render launch.command: %w", err)
	}

	cfg.Args = make([]string, 0, len(args))
	for _, a := range args {
		s, err := render(a, ctx)
		if err != nil {
			return manager.ProcessConfig{}, "", fmt.Errorf("render launch.args: %w", err)
		}
		cfg.Args = append(cfg.Args, s)
	}

	cfg.Env = make([]string, 0, len(r.Launch.Env))
	for _, e := range r.Launch.Env {
		s, err := render(e, ctx)
		if err != nil {
			return manager.ProcessConfig{}, "", fmt.Errorf("render launch.env: %w", err)
		}
		cfg.Env = append(cfg.Env, s)
	}

	return cfg, logPath, nil
}

func render(tmpl string, ctx map[string]string) (string, error) {
	t, err := template.New("x").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}
