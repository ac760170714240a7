package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 1 << 20
)

// Conn frames protocol messages as websocket text frames. Send is safe for
// concurrent use; Recv must be called from a single goroutine.
type Conn struct {
	c *websocket.Conn

	wmu sync.Mutex
}

func NewConn(c *websocket.Conn) *Conn {
	c.SetReadLimit(maxMessage)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.SetPingHandler(func(data string) error {
		_ = c.SetReadDeadline(time.Now().Add(pongWait))
		err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
	return &Conn{c: c}
}

func (c *Conn) Close() error {
	c.wmu.Lock()
	_ = c.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.c.Close()
}

func (c *Conn) Send(msg protocol.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.c.WriteMessage(websocket.TextMessage, b)
}

func (c *Conn) Recv() (protocol.Message, error) {
	for {
		typ, data, err := c.c.ReadMessage()
		if err != nil {
			return protocol.Message{}, err
		}
		_ = c.c.SetReadDeadline(time.Now().Add(pongWait))
		if typ != websocket.TextMessage {
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return protocol.Message{}, fmt.Errorf("invalid json: %w", err)
		}
		return msg, nil
	}
}

// KeepAlive pings the peer until stop is closed or a ping fails.
func (c *Conn) KeepAlive(stop <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.wmu.Lock()
			err := c.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.wmu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
