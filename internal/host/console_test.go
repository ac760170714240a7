package host

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	gorcon "github.com/gorcon/rcon"
	"github.com/gorcon/rcon/rcontest"

	"github.com/faradayfan/mcserver-panel/internal/audit"
)

// console is a fake server console that records the commands it receives.
type console struct {
	mu   sync.Mutex
	cmds []string
	port int
}

func (c *console) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.cmds...)
}

func startConsole(t *testing.T, password string) *console {
	t.Helper()
	c := &console{}

	srv := rcontest.NewUnstartedServer()
	srv.Settings.Password = password
	srv.SetCommandHandler(func(ctx *rcontest.Context) {
		body := ctx.Request().Body()
		c.mu.Lock()
		c.cmds = append(c.cmds, body)
		c.mu.Unlock()

		reply := "There are 0 of a max of 20 players online: "
		if body == "stop" {
			reply = "Stopping the server"
		}
		_, _ = gorcon.NewPacket(gorcon.SERVERDATA_RESPONSE_VALUE, ctx.Request().ID, reply).WriteTo(ctx.Conn())
	})
	srv.Start()
	t.Cleanup(srv.Close)

	_, portStr, err := net.SplitHostPort(srv.Addr())
	if err != nil {
		t.Fatal(err)
	}
	if c.port, err = strconv.Atoi(portStr); err != nil {
		t.Fatal(err)
	}
	return c
}

func newConsoleInstance(t *testing.T, password string) (*Runtime, *memRecorder, *console) {
	t.Helper()
	con := startConsole(t, password)
	r, rec := newTestRuntime(t)
	if err := r.CreateFolder("survival"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(r.InstanceDir("survival"), "server.properties"),
		"enable-rcon=true\nrcon.port="+strconv.Itoa(con.port)+"\nrcon.password="+password+"\n")
	return r, rec, con
}

func TestIsRunningAnswersOverRcon(t *testing.T) {
	r, _, con := newConsoleInstance(t, "hunter2")

	running, err := r.IsRunning(context.Background(), "survival")
	if err != nil {
		t.Fatalf("IsRunning returned error: %v", err)
	}
	if !running {
		t.Fatal("IsRunning = false for an instance whose console answers")
	}
	if got := con.received(); len(got) != 1 || got[0] != "list" {
		t.Errorf("console commands = %v, want [list]", got)
	}
}

func TestIsRunningWrongRconPassword(t *testing.T) {
	con := startConsole(t, "hunter2")
	r, _ := newTestRuntime(t)
	if err := r.CreateFolder("survival"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(r.InstanceDir("survival"), "server.properties"),
		"rcon.port="+strconv.Itoa(con.port)+"\nrcon.password=wrong\n")

	running, err := r.IsRunning(context.Background(), "survival")
	if err != nil || running {
		t.Errorf("IsRunning = %v, %v; want false, nil", running, err)
	}
}

func TestStopServerOverRcon(t *testing.T) {
	r, rec, con := newConsoleInstance(t, "hunter2")

	if err := r.StopServer(context.Background(), "survival"); err != nil {
		t.Fatalf("StopServer returned error: %v", err)
	}
	if got := con.received(); len(got) != 1 || got[0] != "stop" {
		t.Errorf("console commands = %v, want [stop]", got)
	}
	if procs := r.Mgr.List(); len(procs) != 0 {
		t.Errorf("manager was involved: %+v", procs)
	}

	last := rec.events[len(rec.events)-1]
	if last.Action != audit.ActionStop || !last.OK {
		t.Errorf("stop not audited as success: %+v", last)
	}
}
