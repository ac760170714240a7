package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

const (
	AlertNameRequired    = "Le nom du serveur est requis!"
	AlertVersionRequired = "Veuillez sélectionner une version!"

	DefaultDescription = "A Minecraft Server"
)

var (
	ErrNameRequired    = errors.New("server name is required")
	ErrVersionRequired = errors.New("server version is required")
)

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(msg string)
}

type AlertFunc func(msg string)

func (f AlertFunc) Alert(msg string) { f(msg) }

// CreationForm is what the creation dialog collects.
type CreationForm struct {
	Name            string
	Description     string
	Version         string
	MaxPlayers      int
	Difficulty      string
	Whitelist       bool
	Cracked         bool
	AllowFlight     bool
	ForceGamemode   bool
	SpawnProtection int
}

func DefaultForm() CreationForm {
	return CreationForm{
		MaxPlayers:      20,
		Difficulty:      "normal",
		SpawnProtection: 16,
	}
}

type CreationDialog struct {
	host   Host
	roster *Roster
	alert  Alerter

	// WriteProperties also sends the collected fields to the host. When
	// false only the folder is created and the other fields are dropped.
	WriteProperties bool

	mu      sync.Mutex
	visible bool

	log *logrus.Entry
}

func NewCreationDialog(host Host, roster *Roster, alert Alerter) *CreationDialog {
	return &CreationDialog{
		host:   host,
		roster: roster,
		alert:  alert,
		log:    logrus.WithField("component", "dialog"),
	}
}

func (d *CreationDialog) Open() {
	d.mu.Lock()
	d.visible = true
	d.mu.Unlock()
}

func (d *CreationDialog) Close() {
	d.mu.Lock()
	d.visible = false
	d.mu.Unlock()
}

func (d *CreationDialog) Visible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible
}

// Submit validates the form, creates the instance folder and refreshes the
// roster. Validation and host failures are shown through the Alerter and
// leave the dialog open.
func (d *CreationDialog) Submit(ctx context.Context, form CreationForm) error {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		d.alert.Alert(AlertNameRequired)
		return ErrNameRequired
	}
	if form.Version == "" {
		d.alert.Alert(AlertVersionRequired)
		return ErrVersionRequired
	}
	desc := form.Description
	if desc == "" {
		desc = DefaultDescription
	}

	log := d.log.WithField("instance", name)

	if err := d.host.CreateDataFolder(ctx, name); err != nil {
		log.Warnf("create: %v", err)
		d.alert.Alert(fmt.Sprintf("Erreur lors de la création du serveur: %v", err))
		return err
	}

	if d.WriteProperties {
		props := protocol.ServerProperties{
			FolderName:      name,
			Description:     desc,
			Version:         form.Version,
			MaxPlayers:      form.MaxPlayers,
			Difficulty:      form.Difficulty,
			Whitelist:       form.Whitelist,
			Cracked:         form.Cracked,
			AllowFlight:     form.AllowFlight,
			ForceGamemode:   form.ForceGamemode,
			SpawnProtection: form.SpawnProtection,
		}
		if err := d.host.WriteServerProperties(ctx, props); err != nil {
			log.Warnf("write properties: %v", err)
			d.alert.Alert(fmt.Sprintf("Erreur lors de la configuration du serveur: %v", err))
			return err
		}
	} else {
		log.Debugf("dropping creation fields (description=%q version=%s)", desc, form.Version)
	}

	d.Close()
	log.Info("instance created")

	if d.roster != nil {
		if err := d.roster.Rebuild(ctx); err != nil {
			log.Warnf("refresh after create: %v", err)
		}
	}
	return nil
}
