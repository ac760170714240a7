package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/faradayfan/mcserver-panel/internal/ui"
)

// programSender forwards to a program created after the model.
type programSender struct {
	p *tea.Program
}

func (s *programSender) Send(msg tea.Msg) {
	if s.p != nil {
		s.p.Send(msg)
	}
}

// Run starts the panel and blocks until the user quits.
func Run(host ui.Host, opts Options) error {
	sender := &programSender{}
	m := New(host, sender, opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	sender.p = p
	// Pollers may be blocked in Send; stop them only once the event loop
	// has exited.
	defer m.Roster().Close()

	_, err := p.Run()
	return err
}
