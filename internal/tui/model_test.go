package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
	"github.com/faradayfan/mcserver-panel/internal/ui"
)

type stubHost struct {
	mu      sync.Mutex
	folders []string
	created []string
}

func (s *stubHost) DataFolderList(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.folders...), nil
}
func (s *stubHost) ServerVersion(context.Context, string) (string, error) { return "1.21.1", nil }
func (s *stubHost) Description(_ context.Context, n string) (string, error) {
	return "motd " + n, nil
}
func (s *stubHost) IsServerRunning(context.Context, string) (bool, error) { return false, nil }
func (s *stubHost) OpenServer(context.Context, string) error              { return nil }
func (s *stubHost) StopServer(context.Context, string) error              { return nil }
func (s *stubHost) OpenFolder(context.Context, string) error              { return nil }
func (s *stubHost) CreateDataFolder(_ context.Context, n string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, n)
	s.folders = append(s.folders, n)
	return nil
}
func (s *stubHost) WriteServerProperties(context.Context, protocol.ServerProperties) error {
	return nil
}
func (s *stubHost) PaperVersions(context.Context) ([]string, error) {
	return []string{"1.20.4", "1.21.1"}, nil
}

type msgSink struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *msgSink) Send(msg tea.Msg) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

func (s *msgSink) drain() []tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.msgs
	s.msgs = nil
	return out
}

func newTestModel(t *testing.T, folders ...string) (*Model, *stubHost, *msgSink) {
	t.Helper()
	h := &stubHost{folders: folders}
	sink := &msgSink{}
	m := New(h, sink, Options{})
	t.Cleanup(m.Roster().Close)

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	m.Update(m.rebuild()())
	m.Update(m.loadVersions()())
	return m, h, sink
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewListsCards(t *testing.T) {
	m, _, _ := newTestModel(t, "lobby", "survival")

	view := m.View()
	for _, want := range []string{"lobby", "survival", "motd lobby", "0/20", "Start"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDialogOpenAndEscape(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(key("n"))
	if !m.dialog.Visible() {
		t.Fatal("n did not open the dialog")
	}
	if !strings.Contains(m.View(), "Nouveau serveur") {
		t.Errorf("dialog not rendered")
	}
	m.Update(key("esc"))
	if m.dialog.Visible() {
		t.Fatal("esc did not close the dialog")
	}
}

func TestClickOutsideDismissesDialog(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(key("n"))

	x, y, w, h := m.dialogBounds()
	m.Update(tea.MouseMsg{X: x + w/2, Y: y + h/2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.dialog.Visible() {
		t.Fatal("click inside closed the dialog")
	}

	m.Update(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.dialog.Visible() {
		t.Fatal("click outside did not close the dialog")
	}
}

func TestSubmitWithoutNameAlerts(t *testing.T) {
	m, h, sink := newTestModel(t)
	m.Update(key("n"))

	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	m.Update(cmd())
	for _, msg := range sink.drain() {
		m.Update(msg)
	}

	if m.dialogAlert != ui.AlertNameRequired {
		t.Errorf("alert = %q", m.dialogAlert)
	}
	if len(h.created) != 0 {
		t.Errorf("created %v", h.created)
	}
}

func TestSubmitCreatesInstance(t *testing.T) {
	m, h, sink := newTestModel(t)
	m.Update(key("n"))

	for _, r := range "Test" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.Update(key("tab"))
	m.Update(key("tab"))
	m.Update(key("right")) // pick newest version

	_, cmd := m.Update(key("enter"))
	m.Update(cmd())
	for _, msg := range sink.drain() {
		m.Update(msg)
	}

	if len(h.created) != 1 || h.created[0] != "Test" {
		t.Fatalf("created = %v", h.created)
	}
	if m.dialog.Visible() {
		t.Errorf("dialog still open after create")
	}
	if !strings.Contains(m.View(), "Test") {
		t.Errorf("new card not shown")
	}
}

func TestHostChangeTriggersRebuild(t *testing.T) {
	h := &stubHost{folders: []string{"lobby"}}
	sink := &msgSink{}
	var fire func()
	m := New(h, sink, Options{Subscribe: func(fn func()) { fire = fn }})
	t.Cleanup(m.Roster().Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	m.Update(m.rebuild()())

	if fire == nil {
		t.Fatal("Subscribe was not called")
	}

	// Another client adds an instance.
	h.mu.Lock()
	h.folders = append(h.folders, "creative")
	h.mu.Unlock()
	fire()

	msgs := sink.drain()
	var changed tea.Msg
	for _, msg := range msgs {
		if _, ok := msg.(hostChangedMsg); ok {
			changed = msg
		}
	}
	if changed == nil {
		t.Fatalf("no host change message in %v", msgs)
	}

	_, cmd := m.Update(changed)
	if cmd == nil {
		t.Fatal("host change produced no command")
	}
	m.Update(cmd())
	if !strings.Contains(m.View(), "creative") {
		t.Errorf("new instance not shown after host change")
	}
}
