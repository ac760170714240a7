package bridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/auth"
	"github.com/faradayfan/mcserver-panel/internal/protocol"
	"github.com/faradayfan/mcserver-panel/internal/transport"
)

// Remote is an Invoker talking to mcserverd over a websocket. Calls may be
// issued concurrently; responses are matched to calls by request id.
type Remote struct {
	conn *transport.Conn

	mu        sync.Mutex
	pending   map[string]chan protocol.Message // request id -> response channel
	listeners []func()
	err       error

	done chan struct{}
	log  *logrus.Entry
}

type dialOptions struct {
	signer *auth.Signer
	client string
	dialer *websocket.Dialer
}

type DialOption func(*dialOptions)

// WithToken authenticates as client using a shared-secret signer.
func WithToken(s *auth.Signer, client string) DialOption {
	return func(o *dialOptions) {
		o.signer = s
		o.client = client
	}
}

func Dial(ctx context.Context, url string, opts ...DialOption) (*Remote, error) {
	o := dialOptions{dialer: websocket.DefaultDialer, client: "mcserver"}
	for _, opt := range opts {
		opt(&o)
	}

	var header http.Header
	if o.signer != nil {
		h, err := o.signer.Header(o.client)
		if err != nil {
			return nil, err
		}
		header = h
	}

	ws, res, err := o.dialer.DialContext(ctx, url, header)
	if err != nil {
		if res != nil {
			return nil, fmt.Errorf("dial bridge %s: %w (status %s)", url, err, res.Status)
		}
		return nil, fmt.Errorf("dial bridge %s: %w", url, err)
	}

	r := &Remote{
		conn:    transport.NewConn(ws),
		pending: map[string]chan protocol.Message{},
		done:    make(chan struct{}),
		log:     logrus.WithField("component", "bridge"),
	}
	go r.readLoop()
	return r, nil
}

func (r *Remote) Invoke(ctx context.Context, command string, args any, out any) error {
	reqID := uuid.NewString()

	req, err := protocol.NewRequest(reqID, command, args)
	if err != nil {
		return err
	}

	ch := make(chan protocol.Message, 1)

	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return err
	}
	r.pending[reqID] = ch
	r.mu.Unlock()

	// Always cleanup pending
	defer func() {
		r.mu.Lock()
		delete(r.pending, reqID)
		r.mu.Unlock()
	}()

	if err := r.conn.Send(req); err != nil {
		return fmt.Errorf("send %s: %w", command, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return r.Err()
	case resp := <-ch:
		return decodeResponse(command, resp, out)
	}
}

func (r *Remote) NotifyInstanceListChanged(fn func()) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Done is closed once the connection has gone away.
func (r *Remote) Done() <-chan struct{} { return r.done }

// Err reports why the connection ended, nil while it is open.
func (r *Remote) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Remote) Close() error {
	err := r.conn.Close()
	<-r.done
	return err
}

func (r *Remote) readLoop() {
	for {
		msg, err := r.conn.Recv()
		if err != nil {
			r.fail(err)
			return
		}
		if err := msg.ValidateBasic(); err != nil {
			r.log.Debugf("dropping invalid message: %v", err)
			continue
		}

		switch msg.Kind {
		case protocol.KindResponse:
			r.mu.Lock()
			ch, ok := r.pending[msg.ID]
			r.mu.Unlock()

			if ok {
				ch <- msg
			}

		case protocol.KindEvent:
			r.event(msg.Command)

		default:
			r.log.Debugf("dropping message kind=%s id=%s", msg.Kind, msg.ID)
		}
	}
}

// event runs listeners off the read loop so a slow one cannot stall
// responses.
func (r *Remote) event(name string) {
	if name != protocol.EventInstanceListChanged {
		r.log.Debugf("ignoring event %s", name)
		return
	}
	r.mu.Lock()
	fns := append([]func(){}, r.listeners...)
	r.mu.Unlock()
	for _, fn := range fns {
		go fn()
	}
}

func (r *Remote) fail(cause error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = fmt.Errorf("%w: %v", ErrClosed, cause)
	}
	r.mu.Unlock()
	close(r.done)
	r.log.Debugf("connection ended: %v", cause)
}
