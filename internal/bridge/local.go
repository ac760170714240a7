package bridge

import (
	"context"

	"github.com/google/uuid"

	"github.com/faradayfan/mcserver-panel/internal/control"
	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

// Local calls a control.Handler in the same process. Messages still go
// through JSON so both bridges behave the same.
type Local struct {
	Handler *control.Handler
}

func NewLocal(h *control.Handler) *Local {
	return &Local{Handler: h}
}

// NotifyInstanceListChanged hooks fn into the handler. Call it before the
// handler starts serving.
func (l *Local) NotifyInstanceListChanged(fn func()) {
	l.Handler.AddListChangedHook(fn)
}

func (l *Local) Invoke(ctx context.Context, command string, args any, out any) error {
	req, err := protocol.NewRequest(uuid.NewString(), command, args)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := l.Handler.Handle(ctx, req)
	if err != nil {
		return err
	}
	return decodeResponse(command, resp, out)
}
