package control

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/host"
	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

// DefaultTimeout bounds every command so a hung host call cannot pin a
// bridge connection forever.
const DefaultTimeout = 10 * time.Second

type Handler struct {
	Host    *host.Runtime
	Timeout time.Duration

	// Called after a command that adds instances, so listeners can refresh.
	OnInstanceListChanged func()

	log *logrus.Entry
}

func NewHandler(rt *host.Runtime) *Handler {
	return &Handler{
		Host:    rt,
		Timeout: DefaultTimeout,
		log:     logrus.WithField("component", "control"),
	}
}

// AddListChangedHook runs fn after OnInstanceListChanged's current value.
// Hooks must be added before the handler starts serving.
func (h *Handler) AddListChangedHook(fn func()) {
	prev := h.OnInstanceListChanged
	h.OnInstanceListChanged = func() {
		if prev != nil {
			prev()
		}
		fn()
	}
}

// Handle executes one request and always produces a response message when
// the request itself is well formed.
func (h *Handler) Handle(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	if err := msg.ValidateBasic(); err != nil {
		return protocol.Message{}, err
	}
	if msg.Kind != protocol.KindRequest {
		return protocol.Message{}, fmt.Errorf("handler only accepts request messages")
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	result, err := h.dispatch(ctx, msg)
	if err != nil {
		h.log.WithField("command", msg.Command).Debugf("failed: %v", err)
	}
	return protocol.NewResponse(msg.ID, result, err)
}

func (h *Handler) dispatch(ctx context.Context, msg protocol.Message) (any, error) {
	switch msg.Command {

	case protocol.CmdGetDataFolderList:
		return h.Host.FolderList()

	case protocol.CmdGetPaperVersions:
		return h.Host.PaperVersions(ctx)

	case protocol.CmdWriteServerProps:
		var req protocol.ServerProperties
		if err := msg.DecodeArgs(&req); err != nil {
			return nil, err
		}
		return nil, h.Host.WriteProperties(req)

	case protocol.CmdGetActionHistory:
		var req protocol.HistoryRequest
		if err := msg.DecodeArgs(&req); err != nil {
			return nil, err
		}
		return h.Host.History(req.FolderName, req.Limit)
	}

	// Everything else addresses one instance folder.
	var tgt protocol.FolderTarget
	if err := msg.DecodeArgs(&tgt); err != nil {
		return nil, err
	}
	if tgt.FolderName == "" && isFolderCommand(msg.Command) {
		return nil, fmt.Errorf("%s: missing folderName", msg.Command)
	}

	switch msg.Command {
	case protocol.CmdIsServerRunning:
		return h.Host.IsRunning(ctx, tgt.FolderName)

	case protocol.CmdGetServerVersion:
		return h.Host.ServerVersion(tgt.FolderName)

	case protocol.CmdGetDescription:
		return h.Host.Description(tgt.FolderName)

	case protocol.CmdOpenFolder:
		return nil, h.Host.OpenFolder(tgt.FolderName)

	case protocol.CmdOpenServer:
		return nil, h.Host.OpenServer(tgt.FolderName)

	case protocol.CmdStopServer:
		return nil, h.Host.StopServer(ctx, tgt.FolderName)

	case protocol.CmdCreateNewDataFolder:
		if err := h.Host.CreateFolder(tgt.FolderName); err != nil {
			return nil, err
		}
		if h.OnInstanceListChanged != nil {
			h.OnInstanceListChanged()
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command: %s", msg.Command)
	}
}

func isFolderCommand(cmd string) bool {
	switch cmd {
	case protocol.CmdIsServerRunning,
		protocol.CmdGetServerVersion,
		protocol.CmdGetDescription,
		protocol.CmdOpenFolder,
		protocol.CmdOpenServer,
		protocol.CmdStopServer,
		protocol.CmdCreateNewDataFolder:
		return true
	}
	return false
}
