package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/faradayfan/mcserver-panel/internal/ui"
)

type field int

const (
	fieldName field = iota
	fieldDescription
	fieldVersion
	fieldMaxPlayers
	fieldDifficulty
	fieldWhitelist
	fieldCracked
	fieldAllowFlight
	fieldForceGamemode
	fieldSpawnProtection
	fieldCount
)

var difficulties = []string{"peaceful", "easy", "normal", "hard"}

// form is the editable state behind the creation dialog.
type form struct {
	name        textinput.Model
	description textinput.Model
	maxPlayers  textinput.Model
	spawnProt   textinput.Model

	versions   []ui.VersionOption
	versionIdx int // -1 until the user picks one

	difficulty    int
	whitelist     bool
	cracked       bool
	allowFlight   bool
	forceGamemode bool

	focus field
}

func newForm() form {
	def := ui.DefaultForm()

	name := textinput.New()
	name.Placeholder = "Nom du serveur"
	name.CharLimit = 64

	desc := textinput.New()
	desc.Placeholder = ui.DefaultDescription
	desc.CharLimit = 128

	maxPlayers := textinput.New()
	maxPlayers.SetValue(strconv.Itoa(def.MaxPlayers))
	maxPlayers.CharLimit = 4

	spawn := textinput.New()
	spawn.SetValue(strconv.Itoa(def.SpawnProtection))
	spawn.CharLimit = 4

	f := form{
		name:        name,
		description: desc,
		maxPlayers:  maxPlayers,
		spawnProt:   spawn,
		versionIdx:  -1,
		difficulty:  indexOf(difficulties, def.Difficulty),
	}
	f.setFocus(fieldName)
	return f
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

func (f *form) inputs() map[field]*textinput.Model {
	return map[field]*textinput.Model{
		fieldName:            &f.name,
		fieldDescription:     &f.description,
		fieldMaxPlayers:      &f.maxPlayers,
		fieldSpawnProtection: &f.spawnProt,
	}
}

func (f *form) setFocus(fd field) {
	f.focus = fd
	for k, in := range f.inputs() {
		if k == fd {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (f *form) next() { f.setFocus((f.focus + 1) % fieldCount) }
func (f *form) prev() { f.setFocus((f.focus + fieldCount - 1) % fieldCount) }

func (f *form) setVersions(opts []ui.VersionOption) {
	f.versions = opts
	if f.versionIdx >= len(opts) {
		f.versionIdx = -1
	}
}

// cycle moves a choice field by delta. It reports whether the focused field
// is a choice field.
func (f *form) cycle(delta int) bool {
	switch f.focus {
	case fieldVersion:
		if len(f.versions) == 0 {
			return true
		}
		if f.versionIdx < 0 {
			f.versionIdx = 0
			return true
		}
		f.versionIdx = (f.versionIdx + delta + len(f.versions)) % len(f.versions)
	case fieldDifficulty:
		f.difficulty = (f.difficulty + delta + len(difficulties)) % len(difficulties)
	case fieldWhitelist:
		f.whitelist = !f.whitelist
	case fieldCracked:
		f.cracked = !f.cracked
	case fieldAllowFlight:
		f.allowFlight = !f.allowFlight
	case fieldForceGamemode:
		f.forceGamemode = !f.forceGamemode
	default:
		return false
	}
	return true
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	in, ok := f.inputs()[f.focus]
	if !ok {
		return nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

func (f *form) value() ui.CreationForm {
	out := ui.CreationForm{
		Name:          f.name.Value(),
		Description:   f.description.Value(),
		Difficulty:    difficulties[f.difficulty],
		Whitelist:     f.whitelist,
		Cracked:       f.cracked,
		AllowFlight:   f.allowFlight,
		ForceGamemode: f.forceGamemode,
	}
	if f.versionIdx >= 0 && f.versionIdx < len(f.versions) {
		out.Version = f.versions[f.versionIdx].Value
	}
	out.MaxPlayers, _ = strconv.Atoi(strings.TrimSpace(f.maxPlayers.Value()))
	out.SpawnProtection, _ = strconv.Atoi(strings.TrimSpace(f.spawnProt.Value()))
	return out
}

func checkbox(v bool) string {
	if v {
		return "[x]"
	}
	return "[ ]"
}

func (f *form) view(alert string) string {
	label := func(fd field, s string) string {
		if f.focus == fd {
			return focusedStyle.Render("> " + s)
		}
		return "  " + s
	}

	version := dimStyle.Render("-- Sélectionner une version --")
	if f.versionIdx >= 0 && f.versionIdx < len(f.versions) {
		version = "‹ " + f.versions[f.versionIdx].Label + " ›"
	} else if len(f.versions) == 0 {
		version = dimStyle.Render("(aucune version chargée)")
	}

	rows := []string{
		titleStyle.Render("Nouveau serveur"),
		"",
		label(fieldName, "Nom") + "\n    " + f.name.View(),
		label(fieldDescription, "Description") + "\n    " + f.description.View(),
		label(fieldVersion, "Version") + "  " + version,
		label(fieldMaxPlayers, "Joueurs max") + "\n    " + f.maxPlayers.View(),
		label(fieldDifficulty, "Difficulté") + "  ‹ " + difficulties[f.difficulty] + " ›",
		label(fieldWhitelist, checkbox(f.whitelist)+" Whitelist"),
		label(fieldCracked, checkbox(f.cracked)+" Cracked"),
		label(fieldAllowFlight, checkbox(f.allowFlight)+" Allow flight"),
		label(fieldForceGamemode, checkbox(f.forceGamemode)+" Force gamemode"),
		label(fieldSpawnProtection, "Spawn protection") + "\n    " + f.spawnProt.View(),
		"",
		buttonStyle.Render("Entrée: Créer") + " " + buttonStyle.Render("Échap: Annuler"),
	}
	if alert != "" {
		rows = append(rows, "", alertStyle.Render(alert))
	}
	return dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
