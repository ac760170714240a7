package ui

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

type alerts []string

func (a *alerts) Alert(msg string) { *a = append(*a, msg) }

func newTestDialog(h *fakeHost) (*CreationDialog, *Roster, *alerts) {
	r, _ := newTestRoster(h)
	a := &alerts{}
	d := NewCreationDialog(h, r, a)
	d.Open()
	return d, r, a
}

func TestSubmitRequiresName(t *testing.T) {
	h := newFakeHost()
	d, r, a := newTestDialog(h)
	defer r.Close()

	form := DefaultForm()
	form.Name = "   "
	form.Version = "1.21.1"
	if err := d.Submit(context.Background(), form); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("err = %v", err)
	}
	if !reflect.DeepEqual(*a, alerts{AlertNameRequired}) {
		t.Errorf("alerts = %v", *a)
	}
	if got := h.callsTo(protocol.CmdCreateNewDataFolder); len(got) != 0 {
		t.Errorf("create called: %v", got)
	}
	if !d.Visible() {
		t.Errorf("dialog closed on validation failure")
	}
}

func TestSubmitRequiresVersion(t *testing.T) {
	h := newFakeHost()
	d, r, a := newTestDialog(h)
	defer r.Close()

	form := DefaultForm()
	form.Name = "Test"
	if err := d.Submit(context.Background(), form); !errors.Is(err, ErrVersionRequired) {
		t.Fatalf("err = %v", err)
	}
	if !reflect.DeepEqual(*a, alerts{AlertVersionRequired}) {
		t.Errorf("alerts = %v", *a)
	}
	if got := h.callsTo(protocol.CmdCreateNewDataFolder); len(got) != 0 {
		t.Errorf("create called: %v", got)
	}
}

func TestSubmitCreatesAndRebuilds(t *testing.T) {
	h := newFakeHost()
	d, r, a := newTestDialog(h)
	defer r.Close()

	form := DefaultForm()
	form.Name = "  Test "
	form.Version = "1.21.1"
	if err := d.Submit(context.Background(), form); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got := h.callsTo(protocol.CmdCreateNewDataFolder); !reflect.DeepEqual(got, []string{"Test"}) {
		t.Errorf("create calls = %v", got)
	}
	if got := h.callsTo(protocol.CmdWriteServerProps); len(got) != 0 {
		t.Errorf("properties written without opt-in: %v", got)
	}
	if len(h.callsTo(protocol.CmdGetDataFolderList)) != 1 {
		t.Errorf("roster was not rebuilt")
	}
	if _, ok := r.Card("Test"); !ok {
		t.Errorf("new instance missing from roster")
	}
	if d.Visible() {
		t.Errorf("dialog still visible")
	}
	if len(*a) != 0 {
		t.Errorf("unexpected alerts %v", *a)
	}
}

func TestSubmitWritesPropertiesWhenEnabled(t *testing.T) {
	h := newFakeHost()
	d, r, _ := newTestDialog(h)
	defer r.Close()
	d.WriteProperties = true

	form := DefaultForm()
	form.Name = "Test"
	form.Version = "1.21.1"
	if err := d.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	if got := h.callsTo(protocol.CmdWriteServerProps); !reflect.DeepEqual(got, []string{"Test"}) {
		t.Errorf("write_server_properties calls = %v", got)
	}
}

func TestSubmitHostFailureKeepsDialogOpen(t *testing.T) {
	h := newFakeHost()
	h.createErr = errors.New("disk full")
	d, r, a := newTestDialog(h)
	defer r.Close()

	form := DefaultForm()
	form.Name = "Test"
	form.Version = "1.21.1"
	if err := d.Submit(context.Background(), form); err == nil {
		t.Fatal("expected error")
	}
	if !d.Visible() {
		t.Errorf("dialog closed after host failure")
	}
	if len(*a) != 1 {
		t.Errorf("alerts = %v", *a)
	}
	if len(h.callsTo(protocol.CmdGetDataFolderList)) != 0 {
		t.Errorf("roster rebuilt after failure")
	}
}

func TestOpenClose(t *testing.T) {
	d := NewCreationDialog(newFakeHost(), nil, AlertFunc(func(string) {}))
	if d.Visible() {
		t.Fatal("new dialog visible")
	}
	d.Open()
	if !d.Visible() {
		t.Fatal("Open did not show dialog")
	}
	d.Close()
	if d.Visible() {
		t.Fatal("Close did not hide dialog")
	}
}
