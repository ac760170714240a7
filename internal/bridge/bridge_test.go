package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/auth"
	"github.com/faradayfan/mcserver-panel/internal/config"
	"github.com/faradayfan/mcserver-panel/internal/control"
	"github.com/faradayfan/mcserver-panel/internal/host"
	"github.com/faradayfan/mcserver-panel/internal/manager"
)

type fixedVersions []string

func (f fixedVersions) Versions(context.Context) ([]string, error) { return f, nil }

func newHandler(t *testing.T) *control.Handler {
	t.Helper()
	dir := t.TempDir()
	rt := host.NewRuntime(manager.NewManager(), config.Default().Launch, nil,
		fixedVersions{"1.20.4", "1.21.1"}, nil,
		filepath.Join(dir, "data"), filepath.Join(dir, "logs"))
	return control.NewHandler(rt)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// exercise runs the same command sequence against any invoker.
func exercise(t *testing.T, h *Host) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.CreateDataFolder(ctx, "survival"); err != nil {
		t.Fatalf("CreateDataFolder: %v", err)
	}
	if err := h.CreateDataFolder(ctx, "creative"); err != nil {
		t.Fatalf("CreateDataFolder: %v", err)
	}

	folders, err := h.DataFolderList(ctx)
	if err != nil {
		t.Fatalf("DataFolderList: %v", err)
	}
	if want := []string{"creative", "survival"}; !reflect.DeepEqual(folders, want) {
		t.Errorf("folders = %v, want %v", folders, want)
	}

	running, err := h.IsServerRunning(ctx, "survival")
	if err != nil {
		t.Fatalf("IsServerRunning: %v", err)
	}
	if running {
		t.Errorf("fresh instance reported running")
	}

	versions, err := h.PaperVersions(ctx)
	if err != nil {
		t.Fatalf("PaperVersions: %v", err)
	}
	if want := []string{"1.20.4", "1.21.1"}; !reflect.DeepEqual(versions, want) {
		t.Errorf("versions = %v, want %v", versions, want)
	}

	_, err = h.ServerVersion(ctx, "../etc")
	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("expected *Error for bad folder, got %v", err)
	}
	if berr.Command != "get_server_version" {
		t.Errorf("error command = %q", berr.Command)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	exercise(t, NewHost(NewLocal(newHandler(t))))
}

func TestLocalUnknownCommand(t *testing.T) {
	l := NewLocal(newHandler(t))
	err := l.Invoke(context.Background(), "reboot_universe", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRemoteRoundTrip(t *testing.T) {
	signer := auth.NewSigner("s3cret")
	srv := httptest.NewServer(NewServer(newHandler(t), signer))
	defer srv.Close()

	r, err := Dial(context.Background(), wsURL(srv), WithToken(signer, "test"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer r.Close()

	exercise(t, NewHost(r))
}

func TestRemoteConcurrentCalls(t *testing.T) {
	srv := httptest.NewServer(NewServer(newHandler(t), nil))
	defer srv.Close()

	r, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer r.Close()
	h := NewHost(r)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	errs := make(chan error, len(names))
	for _, n := range names {
		go func(n string) {
			errs <- h.CreateDataFolder(context.Background(), n)
		}(n)
	}
	for range names {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}

	folders, err := h.DataFolderList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(folders, names) {
		t.Errorf("folders = %v, want %v", folders, names)
	}
}

func TestRemoteRejectsMissingToken(t *testing.T) {
	srv := httptest.NewServer(NewServer(newHandler(t), auth.NewSigner("s3cret")))
	defer srv.Close()

	if _, err := Dial(context.Background(), wsURL(srv)); err == nil {
		t.Fatal("expected dial without token to fail")
	}

	other := auth.NewSigner("wrong")
	if _, err := Dial(context.Background(), wsURL(srv), WithToken(other, "test")); err == nil {
		t.Fatal("expected dial with foreign token to fail")
	}
}

func TestRemoteClosedConnection(t *testing.T) {
	// Server that accepts the upgrade and hangs up straight away.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = c.Close()
	}))
	defer srv.Close()

	r, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("remote did not notice closed connection")
	}

	err = r.Invoke(context.Background(), "get_data_folder_list", nil, nil)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestRedialerReconnects(t *testing.T) {
	h := newHandler(t)
	srv := httptest.NewServer(NewServer(h, nil))
	defer srv.Close()

	d := NewRedialer(wsURL(srv))
	defer d.Close()
	bh := NewHost(d)

	if err := bh.CreateDataFolder(context.Background(), "a"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Drop the live connection from the client side.
	d.mu.Lock()
	cur := d.cur
	d.mu.Unlock()
	_ = cur.Close()

	folders, err := bh.DataFolderList(context.Background())
	if err != nil {
		t.Fatalf("call after drop: %v", err)
	}
	if !reflect.DeepEqual(folders, []string{"a"}) {
		t.Errorf("folders = %v", folders)
	}
}

func TestRedialerBacksOff(t *testing.T) {
	dials := 0
	now := time.Unix(1000, 0)
	d := &Redialer{
		dial: func(context.Context) (*Remote, error) {
			dials++
			return nil, errors.New("connection refused")
		},
		now: func() time.Time { return now },
		log: logrus.WithField("component", "bridge"),
	}

	for i := 0; i < 3; i++ {
		if err := d.Invoke(context.Background(), "get_data_folder_list", nil, nil); !errors.Is(err, ErrClosed) {
			t.Fatalf("err = %v, want ErrClosed", err)
		}
	}
	if dials != 1 {
		t.Errorf("dials within backoff = %d, want 1", dials)
	}

	now = now.Add(minBackoff)
	_ = d.Invoke(context.Background(), "get_data_folder_list", nil, nil)
	if dials != 2 || d.backoff != 2*minBackoff {
		t.Errorf("dials = %d backoff = %s", dials, d.backoff)
	}
}

func TestLocalNotifiesOnCreate(t *testing.T) {
	l := NewLocal(newHandler(t))
	fired := 0
	l.NotifyInstanceListChanged(func() { fired++ })

	if err := NewHost(l).CreateDataFolder(context.Background(), "survival"); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("listener fired %d times, want 1", fired)
	}
}

func TestServerBroadcastsListChanges(t *testing.T) {
	h := newHandler(t)
	srv := NewServer(h, nil)
	h.AddListChangedHook(srv.InstanceListChanged)
	hs := httptest.NewServer(srv)
	defer hs.Close()

	// A panel that only listens.
	watcher := NewRedialer(wsURL(hs))
	defer watcher.Close()
	fired := make(chan struct{}, 1)
	watcher.NotifyInstanceListChanged(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if _, err := NewHost(watcher).DataFolderList(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A second client creates an instance.
	ctl, err := Dial(context.Background(), wsURL(hs))
	if err != nil {
		t.Fatal(err)
	}
	defer ctl.Close()
	if err := NewHost(ctl).CreateDataFolder(context.Background(), "survival"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher was not told about the new instance")
	}
}
