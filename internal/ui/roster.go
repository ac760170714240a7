package ui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultPollInterval = 2 * time.Second

// generation owns everything started by one Rebuild: the pollers, the
// per-instance tasks and the cards they update. Cancelling it stops all of
// them, and a cancelled generation can no longer change what is displayed.
type generation struct {
	ctx    context.Context
	cancel context.CancelFunc

	pollers sync.WaitGroup
	tasks   map[taskKey]*task

	order []string
	cards map[string]*cardState
}

type task struct {
	cancel context.CancelFunc
}

type taskKey struct {
	id     string
	action string
}

type Roster struct {
	host     Host
	clock    clockwork.Clock
	interval time.Duration

	// OnChange is called from roster goroutines after the displayed cards
	// change.
	OnChange func()

	mu  sync.Mutex
	gen *generation

	rebuildMu sync.Mutex
	active    atomic.Int32

	log *logrus.Entry
}

type Option func(*Roster)

func WithClock(c clockwork.Clock) Option {
	return func(r *Roster) { r.clock = c }
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Roster) {
		if d > 0 {
			r.interval = d
		}
	}
}

func NewRoster(host Host, opts ...Option) *Roster {
	r := &Roster{
		host:     host,
		clock:    clockwork.NewRealClock(),
		interval: DefaultPollInterval,
		log:      logrus.WithField("component", "roster"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rebuild drops the current cards and everything they run, then builds a
// card per host folder. It returns once every card has had its first
// status check and its poller is scheduled.
func (r *Roster) Rebuild(ctx context.Context) error {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()

	gctx, cancel := context.WithCancel(context.Background())
	g := &generation{
		ctx:    gctx,
		cancel: cancel,
		tasks:  map[taskKey]*task{},
		cards:  map[string]*cardState{},
	}

	r.mu.Lock()
	old := r.gen
	r.gen = g
	r.mu.Unlock()
	r.retire(old)

	folders, err := r.host.DataFolderList(ctx)
	if err != nil {
		r.log.Warnf("list instances: %v", err)
		r.notify()
		return err
	}

	states := make([]*cardState, len(folders))
	eg, ectx := errgroup.WithContext(ctx)
	for i, name := range folders {
		i, name := i, name
		eg.Go(func() error {
			states[i] = r.buildCard(ectx, name)
			return nil
		})
	}
	_ = eg.Wait()

	r.mu.Lock()
	if r.gen != g {
		r.mu.Unlock()
		return nil
	}
	for _, st := range states {
		if _, dup := g.cards[st.id]; dup {
			continue
		}
		g.order = append(g.order, st.id)
		g.cards[st.id] = st
	}
	for _, id := range g.order {
		g.pollers.Add(1)
		r.active.Add(1)
		go r.poll(g, id)
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *Roster) buildCard(ctx context.Context, name string) *cardState {
	st := &cardState{id: name}
	log := r.log.WithField("instance", name)

	if v, err := r.host.ServerVersion(ctx, name); err != nil {
		log.Warnf("version: %v", err)
	} else {
		st.version = v
	}
	if d, err := r.host.Description(ctx, name); err != nil {
		log.Warnf("description: %v", err)
	} else {
		st.description = d
	}

	if running, err := r.host.IsServerRunning(ctx, name); err != nil {
		log.Debugf("status: %v", err)
	} else {
		st.running = running
	}
	return st
}

// retire cancels a generation and waits for its pollers to exit.
func (r *Roster) retire(g *generation) {
	if g == nil {
		return
	}
	g.cancel()
	r.mu.Lock()
	for k, t := range g.tasks {
		t.cancel()
		delete(g.tasks, k)
	}
	r.mu.Unlock()
	g.pollers.Wait()
}

func (r *Roster) poll(g *generation, id string) {
	defer r.active.Add(-1)
	defer g.pollers.Done()

	t := r.clock.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-t.Chan():
			r.checkStatus(g, id)
		}
	}
}

func (r *Roster) checkStatus(g *generation, id string) {
	running, err := r.host.IsServerRunning(g.ctx, id)
	if err != nil {
		r.log.WithField("instance", id).Debugf("status: %v", err)
		return
	}

	r.mu.Lock()
	if r.gen != g {
		r.mu.Unlock()
		return
	}
	st, ok := g.cards[id]
	changed := ok && st.running != running
	if ok {
		st.running = running
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

// Cards returns the current cards in host order.
func (r *Roster) Cards() []Card {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := r.gen
	if g == nil {
		return nil
	}
	out := make([]Card, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, r.snapshot(g, g.cards[id]))
	}
	return out
}

// Card returns the current card for id.
func (r *Roster) Card(id string) (Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen == nil {
		return Card{}, false
	}
	st, ok := r.gen.cards[id]
	if !ok {
		return Card{}, false
	}
	return r.snapshot(r.gen, st), true
}

func (r *Roster) snapshot(g *generation, st *cardState) Card {
	id := st.id
	c := Card{
		ID:          id,
		Title:       id,
		Players:     PlayersPlaceholder,
		Version:     st.version,
		Description: st.description,
		Running:     st.running,
		Dot:         dotColor(st.running),
		Edit:        Control{Label: LabelEdit, Action: func() {}},
		OpenFolder: Control{Label: LabelOpen, Action: func() {
			r.runTask(g, id, "open_folder", r.host.OpenFolder)
		}},
	}
	if st.running {
		c.Toggle = Control{Label: LabelStop, Action: func() {
			r.runTask(g, id, "stop_server", r.host.StopServer)
		}}
	} else {
		c.Toggle = Control{Label: LabelStart, Action: func() {
			r.runTask(g, id, "open_server", r.host.OpenServer)
		}}
	}
	return c
}

// runTask issues one host call for id. A newer call of the same kind for the
// same instance cancels the older one, and so does the next Rebuild.
func (r *Roster) runTask(g *generation, id, action string, call func(context.Context, string) error) {
	key := taskKey{id: id, action: action}

	r.mu.Lock()
	if g.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	if prev, ok := g.tasks[key]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(g.ctx)
	t := &task{cancel: cancel}
	g.tasks[key] = t
	r.mu.Unlock()

	go func() {
		defer cancel()
		err := call(ctx, id)

		r.mu.Lock()
		// The entry may already belong to a newer task.
		if g.tasks[key] == t {
			delete(g.tasks, key)
		}
		r.mu.Unlock()

		if err != nil && ctx.Err() == nil {
			r.log.WithField("instance", id).Warnf("%s: %v", action, err)
		}
	}()
}

// ActivePollers reports how many status pollers are running.
func (r *Roster) ActivePollers() int {
	return int(r.active.Load())
}

// Close stops every poller and task.
func (r *Roster) Close() {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()

	r.mu.Lock()
	old := r.gen
	r.gen = nil
	r.mu.Unlock()
	r.retire(old)
}

func (r *Roster) notify() {
	if r.OnChange != nil {
		r.OnChange()
	}
}
