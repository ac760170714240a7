package bridge

import (
	"context"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

// Host is a typed view over an Invoker.
type Host struct {
	inv Invoker
}

func NewHost(inv Invoker) *Host {
	return &Host{inv: inv}
}

func (h *Host) Invoker() Invoker { return h.inv }

func folder(name string) protocol.FolderTarget {
	return protocol.FolderTarget{FolderName: name}
}

func (h *Host) IsServerRunning(ctx context.Context, name string) (bool, error) {
	var running bool
	err := h.inv.Invoke(ctx, protocol.CmdIsServerRunning, folder(name), &running)
	return running, err
}

func (h *Host) DataFolderList(ctx context.Context) ([]string, error) {
	var out []string
	err := h.inv.Invoke(ctx, protocol.CmdGetDataFolderList, nil, &out)
	return out, err
}

func (h *Host) ServerVersion(ctx context.Context, name string) (string, error) {
	var v string
	err := h.inv.Invoke(ctx, protocol.CmdGetServerVersion, folder(name), &v)
	return v, err
}

func (h *Host) Description(ctx context.Context, name string) (string, error) {
	var d string
	err := h.inv.Invoke(ctx, protocol.CmdGetDescription, folder(name), &d)
	return d, err
}

func (h *Host) OpenFolder(ctx context.Context, name string) error {
	return h.inv.Invoke(ctx, protocol.CmdOpenFolder, folder(name), nil)
}

func (h *Host) OpenServer(ctx context.Context, name string) error {
	return h.inv.Invoke(ctx, protocol.CmdOpenServer, folder(name), nil)
}

func (h *Host) StopServer(ctx context.Context, name string) error {
	return h.inv.Invoke(ctx, protocol.CmdStopServer, folder(name), nil)
}

func (h *Host) CreateDataFolder(ctx context.Context, name string) error {
	return h.inv.Invoke(ctx, protocol.CmdCreateNewDataFolder, folder(name), nil)
}

func (h *Host) PaperVersions(ctx context.Context) ([]string, error) {
	var out []string
	err := h.inv.Invoke(ctx, protocol.CmdGetPaperVersions, nil, &out)
	return out, err
}

func (h *Host) WriteServerProperties(ctx context.Context, props protocol.ServerProperties) error {
	return h.inv.Invoke(ctx, protocol.CmdWriteServerProps, props, nil)
}

func (h *Host) ActionHistory(ctx context.Context, name string, limit int) ([]protocol.HistoryEntry, error) {
	var out []protocol.HistoryEntry
	err := h.inv.Invoke(ctx, protocol.CmdGetActionHistory, protocol.HistoryRequest{FolderName: name, Limit: limit}, &out)
	return out, err
}
