package ui

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// Option of the version selector.
type VersionOption struct {
	Value string
	Label string
}

type VersionLoader struct {
	host Host

	mu      sync.Mutex
	options []VersionOption

	log *logrus.Entry
}

func NewVersionLoader(host Host) *VersionLoader {
	return &VersionLoader{
		host: host,
		log:  logrus.WithField("component", "versions"),
	}
}

// Load replaces the options with the host's versions, newest first. On
// failure the existing options are kept and the error is only logged.
func (l *VersionLoader) Load(ctx context.Context) {
	versions, err := l.host.PaperVersions(ctx)
	if err != nil {
		l.log.Errorf("Error loading versions: %v", err)
		return
	}

	versions = slices.Clone(versions)
	slices.Reverse(versions)

	opts := make([]VersionOption, 0, len(versions))
	for _, v := range versions {
		opts = append(opts, VersionOption{Value: v, Label: "Paper " + v})
	}

	l.mu.Lock()
	l.options = opts
	l.mu.Unlock()
}

func (l *VersionLoader) Options() []VersionOption {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.options)
}
