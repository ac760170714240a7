package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

type call struct {
	cmd  string
	name string
}

type fakeHost struct {
	mu       sync.Mutex
	folders  []string
	running  map[string]bool
	versions []string
	calls    []call

	listErr     error
	versionsErr error
	createErr   error
	statusErr   error

	// block, when set, holds open_server until the context is done.
	block bool
}

func newFakeHost(folders ...string) *fakeHost {
	return &fakeHost{folders: folders, running: map[string]bool{}}
}

func (f *fakeHost) record(cmd, name string) {
	f.mu.Lock()
	f.calls = append(f.calls, call{cmd, name})
	f.mu.Unlock()
}

func (f *fakeHost) setRunning(name string, v bool) {
	f.mu.Lock()
	f.running[name] = v
	f.mu.Unlock()
}

func (f *fakeHost) callsTo(cmd string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.cmd == cmd {
			out = append(out, c.name)
		}
	}
	return out
}

func (f *fakeHost) DataFolderList(context.Context) ([]string, error) {
	f.record(protocol.CmdGetDataFolderList, "")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.folders...), nil
}

func (f *fakeHost) ServerVersion(_ context.Context, name string) (string, error) {
	f.record(protocol.CmdGetServerVersion, name)
	if name == "broken" {
		return "", errors.New("no versions dir")
	}
	return "1.21.1", nil
}

func (f *fakeHost) Description(_ context.Context, name string) (string, error) {
	f.record(protocol.CmdGetDescription, name)
	return "motd of " + name, nil
}

func (f *fakeHost) IsServerRunning(_ context.Context, name string) (bool, error) {
	f.record(protocol.CmdIsServerRunning, name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return false, f.statusErr
	}
	return f.running[name], nil
}

func (f *fakeHost) OpenServer(ctx context.Context, name string) error {
	f.record(protocol.CmdOpenServer, name)
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		f.record("open_server_cancelled", name)
		return ctx.Err()
	}
	return nil
}

func (f *fakeHost) StopServer(_ context.Context, name string) error {
	f.record(protocol.CmdStopServer, name)
	return nil
}

func (f *fakeHost) OpenFolder(_ context.Context, name string) error {
	f.record(protocol.CmdOpenFolder, name)
	return nil
}

func (f *fakeHost) CreateDataFolder(_ context.Context, name string) error {
	f.record(protocol.CmdCreateNewDataFolder, name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.folders = append(f.folders, name)
	return nil
}

func (f *fakeHost) WriteServerProperties(_ context.Context, p protocol.ServerProperties) error {
	f.record(protocol.CmdWriteServerProps, p.FolderName)
	return nil
}

func (f *fakeHost) PaperVersions(context.Context) ([]string, error) {
	f.record(protocol.CmdGetPaperVersions, "")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.versionsErr != nil {
		return nil, f.versionsErr
	}
	return append([]string(nil), f.versions...), nil
}

// waitFor polls cond until it holds or the test deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
