package bridge

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/auth"
	"github.com/faradayfan/mcserver-panel/internal/control"
	"github.com/faradayfan/mcserver-panel/internal/protocol"
	"github.com/faradayfan/mcserver-panel/internal/transport"
)

// Server exposes a control.Handler as a websocket endpoint.
type Server struct {
	Handler *control.Handler
	// Signer, when set, requires a valid bearer token on upgrade.
	Signer *auth.Signer

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*transport.Conn]struct{}

	log *logrus.Entry
}

func NewServer(h *control.Handler, signer *auth.Signer) *Server {
	return &Server{
		Handler: h,
		Signer:  signer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		conns: map[*transport.Conn]struct{}{},
		log:   logrus.WithField("component", "bridge"),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	client := "anonymous"
	if s.Signer != nil {
		name, err := s.Signer.FromRequest(r)
		if err != nil {
			s.log.Warnf("rejected bridge client from %s: %v", r.RemoteAddr, err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		client = name
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade failed: %v", err)
		return
	}
	s.serve(r.Context(), transport.NewConn(ws), client)
}

func (s *Server) serve(ctx context.Context, tc *transport.Conn, client string) {
	log := s.log.WithField("client", client)
	log.Info("client connected")

	s.mu.Lock()
	s.conns[tc] = struct{}{}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := make(chan struct{})
	defer func() {
		s.mu.Lock()
		delete(s.conns, tc)
		s.mu.Unlock()
		close(stop)
		cancel()
		_ = tc.Close()
		log.Info("client disconnected")
	}()
	go tc.KeepAlive(stop)

	for {
		msg, err := tc.Recv()
		if err != nil {
			return
		}

		if err := msg.ValidateBasic(); err != nil {
			log.Warnf("invalid message: %v", err)
			continue
		}
		if msg.Kind != protocol.KindRequest {
			continue
		}

		// Requests run concurrently; a slow status probe must not hold up
		// the rest of a roster refresh.
		go func(msg protocol.Message) {
			resp, err := s.Handler.Handle(ctx, msg)
			if err != nil {
				// If handler couldn't even produce a response, we can still try to return one
				resp, _ = protocol.NewResponse(msg.ID, nil, err)
			}
			if err := tc.Send(resp); err != nil {
				log.Debugf("send response %s: %v", msg.ID, err)
			}
		}(msg)
	}
}

// Broadcast pushes an event to every connected client.
func (s *Server) Broadcast(name string) {
	msg := protocol.NewEvent(name)

	s.mu.Lock()
	conns := make([]*transport.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			s.log.Debugf("broadcast %s: %v", name, err)
		}
	}
}

// InstanceListChanged is suitable as control.Handler.OnInstanceListChanged.
func (s *Server) InstanceListChanged() {
	s.Broadcast(protocol.EventInstanceListChanged)
}
