package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

func TestSendRecvRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewConn(ws)
		defer c.Close()
		msg, err := c.Recv()
		if err != nil {
			return
		}
		resp, _ := protocol.NewResponse(msg.ID, []string{"echo", msg.Command}, nil)
		_ = c.Send(resp)
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c := NewConn(ws)
	defer c.Close()

	req, _ := protocol.NewRequest("abc", protocol.CmdGetDataFolderList, nil)
	if err := c.Send(req); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	resp, err := c.Recv()
	if err != nil {
		t.Fatalf("Recv returned error: %v", err)
	}
	if resp.Kind != protocol.KindResponse || resp.ID != "abc" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if string(resp.Result) != `["echo","get_data_folder_list"]` {
		t.Errorf("result = %s", resp.Result)
	}
}
