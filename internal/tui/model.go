// Package tui renders the instance panel in a terminal.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/ui"
)

const hostCallTimeout = 15 * time.Second

type (
	cardsChangedMsg struct{}
	hostChangedMsg  struct{}
	rebuildDoneMsg  struct{ err error }
	versionsMsg     struct{}
	submitDoneMsg   struct{ err error }
	alertMsg        struct{ text string }
	statusMsg       struct{ text string }
)

// Sender delivers messages to the running program.
type Sender interface {
	Send(msg tea.Msg)
}

type Model struct {
	host     ui.Host
	roster   *ui.Roster
	dialog   *ui.CreationDialog
	versions *ui.VersionLoader

	// dataDir is the host data directory when it is on this machine; empty
	// for a remote host.
	dataDir string

	cards    []ui.Card
	selected int

	form        form
	dialogAlert string
	submitting  bool

	status string
	err    error

	width, height int

	log *logrus.Entry
}

type Options struct {
	PollInterval    time.Duration
	WriteProperties bool
	DataDir         string

	// Subscribe, when set, registers a callback for instance folders
	// created elsewhere (another panel, mcserverctl). The roster is rebuilt
	// when it fires.
	Subscribe func(onChange func())
}

// New wires the view-model to sender. Roster changes and dialog alerts are
// delivered as messages so that Update stays the only writer of Model.
func New(host ui.Host, sender Sender, opts Options) *Model {
	roster := ui.NewRoster(host, ui.WithPollInterval(opts.PollInterval))
	roster.OnChange = func() { sender.Send(cardsChangedMsg{}) }

	dialog := ui.NewCreationDialog(host, roster, ui.AlertFunc(func(text string) {
		sender.Send(alertMsg{text: text})
	}))
	dialog.WriteProperties = opts.WriteProperties

	if opts.Subscribe != nil {
		opts.Subscribe(func() { sender.Send(hostChangedMsg{}) })
	}

	return &Model{
		host:     host,
		roster:   roster,
		dialog:   dialog,
		versions: ui.NewVersionLoader(host),
		dataDir:  opts.DataDir,
		form:     newForm(),
		log:      logrus.WithField("component", "tui"),
	}
}

func (m *Model) Roster() *ui.Roster { return m.roster }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.rebuild(), m.loadVersions())
}

func (m *Model) rebuild() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hostCallTimeout)
		defer cancel()
		return rebuildDoneMsg{err: m.roster.Rebuild(ctx)}
	}
}

func (m *Model) loadVersions() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hostCallTimeout)
		defer cancel()
		m.versions.Load(ctx)
		return versionsMsg{}
	}
}

func (m *Model) submit(v ui.CreationForm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hostCallTimeout)
		defer cancel()
		return submitDoneMsg{err: m.dialog.Submit(ctx, v)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case cardsChangedMsg:
		m.refreshCards()
		return m, nil

	case hostChangedMsg:
		return m, m.rebuild()

	case rebuildDoneMsg:
		m.err = msg.err
		m.refreshCards()
		return m, nil

	case versionsMsg:
		m.form.setVersions(m.versions.Options())
		return m, nil

	case alertMsg:
		if m.dialog.Visible() {
			m.dialogAlert = msg.text
		} else {
			m.status = msg.text
		}
		return m, nil

	case statusMsg:
		m.status = msg.text
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		if msg.err == nil {
			m.form = newForm()
			m.form.setVersions(m.versions.Options())
			m.dialogAlert = ""
			m.status = "Serveur créé"
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.dialog.Visible() {
			return m.updateDialog(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *Model) refreshCards() {
	m.cards = m.roster.Cards()
	if m.selected >= len(m.cards) {
		m.selected = max(len(m.cards)-1, 0)
	}
}

func (m *Model) current() (ui.Card, bool) {
	if m.selected < 0 || m.selected >= len(m.cards) {
		return ui.Card{}, false
	}
	return m.cards[m.selected], true
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.cards)-1 {
			m.selected++
		}

	case "s", "enter":
		if c, ok := m.current(); ok {
			c.Toggle.Action()
			m.status = fmt.Sprintf("%s: %s demandé", c.Title, strings.ToLower(c.Toggle.Label))
		}
	case "o":
		if c, ok := m.current(); ok {
			c.OpenFolder.Action()
		}
	case "e":
		if c, ok := m.current(); ok {
			c.Edit.Action()
		}
	case "c":
		if c, ok := m.current(); ok {
			return m, m.copyPath(c.ID)
		}

	case "n":
		m.dialogAlert = ""
		m.dialog.Open()
		return m, m.form.name.Focus()
	case "r":
		m.status = ""
		return m, tea.Batch(m.rebuild(), m.loadVersions())
	}
	return m, nil
}

func (m *Model) copyPath(id string) tea.Cmd {
	path := id
	if m.dataDir != "" {
		path = filepath.Join(m.dataDir, id)
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(path); err != nil {
			m.log.Warnf("copy to clipboard: %v", err)
			return statusMsg{text: "Copie impossible: " + err.Error()}
		}
		return statusMsg{text: "Copié: " + path}
	}
}

func (m *Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.dialog.Close()
		return m, nil
	case "tab", "down":
		m.form.next()
		return m, nil
	case "shift+tab", "up":
		m.form.prev()
		return m, nil
	case "left":
		if m.form.cycle(-1) {
			return m, nil
		}
	case "right", " ":
		if m.form.cycle(1) {
			return m, nil
		}
	case "enter":
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.dialogAlert = ""
		return m, m.submit(m.form.value())
	}
	return m, m.form.update(msg)
}

// handleMouse dismisses the dialog on a click outside of its box.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.dialog.Visible() {
		return m, nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	x, y, w, h := m.dialogBounds()
	if msg.X < x || msg.X >= x+w || msg.Y < y || msg.Y >= y+h {
		m.dialog.Close()
	}
	return m, nil
}

func (m *Model) dialogBounds() (x, y, w, h int) {
	box := m.form.view(m.dialogAlert)
	w, h = lipgloss.Width(box), lipgloss.Height(box)
	return max((m.width-w)/2, 0), max((m.height-h)/2, 0), w, h
}

func (m *Model) View() string {
	if m.dialog.Visible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.form.view(m.dialogAlert))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Minecraft Servers"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(alertStyle.Render("Erreur: " + m.err.Error()))
		b.WriteString("\n\n")
	}
	if len(m.cards) == 0 && m.err == nil {
		b.WriteString(dimStyle.Render("Aucun serveur. Appuyez sur n pour en créer un."))
		b.WriteString("\n")
	}

	for i, c := range m.cards {
		b.WriteString(renderCard(c, i == m.selected))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ choisir • s start/stop • o dossier • e éditer • c copier le chemin • n nouveau • r rafraîchir • q quitter"))
	return b.String()
}

func renderCard(c ui.Card, selected bool) string {
	header := fmt.Sprintf("%s %s", dot(c.Dot), lipgloss.NewStyle().Bold(true).Render(c.Title))
	meta := dimStyle.Render(fmt.Sprintf("Joueurs %s • %s", c.Players, c.Version))
	controls := strings.Join([]string{
		buttonStyle.Render(c.Toggle.Label),
		buttonStyle.Render(c.Edit.Label),
		buttonStyle.Render(c.OpenFolder.Label),
	}, " ")

	body := lipgloss.JoinVertical(lipgloss.Left, header, meta, c.Description, controls)
	if selected {
		return selectedCardStyle.Render(body)
	}
	return cardStyle.Render(body)
}
