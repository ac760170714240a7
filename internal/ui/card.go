// Package ui holds the toolkit-independent state of the instance panel:
// the roster of cards, their status pollers and the creation dialog.
package ui

import (
	"context"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

const (
	ColorRunning = "#00FF00"
	ColorStopped = "#FF0000"

	LabelStart = "Start"
	LabelStop  = "Stop"
	LabelEdit  = "Edit"
	LabelOpen  = "Open folder"

	// Player counts are not queried; every card shows this.
	PlayersPlaceholder = "0/20"
)

// Host is the part of the host command surface the panel uses.
// *bridge.Host satisfies it.
type Host interface {
	DataFolderList(ctx context.Context) ([]string, error)
	ServerVersion(ctx context.Context, name string) (string, error)
	Description(ctx context.Context, name string) (string, error)
	IsServerRunning(ctx context.Context, name string) (bool, error)
	OpenServer(ctx context.Context, name string) error
	StopServer(ctx context.Context, name string) error
	OpenFolder(ctx context.Context, name string) error
	CreateDataFolder(ctx context.Context, name string) error
	WriteServerProperties(ctx context.Context, props protocol.ServerProperties) error
	PaperVersions(ctx context.Context) ([]string, error)
}

// Control is a labelled action on a card.
type Control struct {
	Label  string
	Action func()
}

// Card is a snapshot of one instance as rendered. Controls are bound to the
// card's ID when the snapshot is taken.
type Card struct {
	ID          string
	Title       string
	Players     string
	Version     string
	Description string
	Running     bool
	Dot         string

	Toggle     Control
	Edit       Control
	OpenFolder Control
}

type cardState struct {
	id          string
	version     string
	description string
	running     bool
}

func dotColor(running bool) string {
	if running {
		return ColorRunning
	}
	return ColorStopped
}
