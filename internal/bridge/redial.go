package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
)

// Redialer is an Invoker that keeps a Remote connected. A dropped
// connection is redialled on the next call; failed dials back off
// exponentially up to maxBackoff.
type Redialer struct {
	dial func(ctx context.Context) (*Remote, error)
	now  func() time.Time

	mu        sync.Mutex
	cur       *Remote
	listeners []func()
	backoff   time.Duration
	next      time.Time
	lastErr   error

	log *logrus.Entry
}

func NewRedialer(url string, opts ...DialOption) *Redialer {
	return &Redialer{
		dial: func(ctx context.Context) (*Remote, error) {
			return Dial(ctx, url, opts...)
		},
		now: time.Now,
		log: logrus.WithField("component", "bridge"),
	}
}

func (d *Redialer) remote(ctx context.Context) (*Remote, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cur != nil && d.cur.Err() == nil {
		return d.cur, nil
	}
	d.cur = nil

	if now := d.now(); now.Before(d.next) {
		return nil, fmt.Errorf("%w: reconnecting in %s: %v", ErrClosed, d.next.Sub(now).Round(time.Second), d.lastErr)
	}

	r, err := d.dial(ctx)
	if err != nil {
		if d.backoff == 0 {
			d.backoff = minBackoff
		} else {
			d.backoff = min(d.backoff*2, maxBackoff)
		}
		d.next = d.now().Add(d.backoff)
		d.lastErr = err
		d.log.Warnf("connect failed, retrying in %s: %v", d.backoff, err)
		return nil, fmt.Errorf("%w: %v", ErrClosed, err)
	}

	d.backoff = 0
	d.next = time.Time{}
	d.lastErr = nil
	for _, fn := range d.listeners {
		r.NotifyInstanceListChanged(fn)
	}
	d.cur = r
	return r, nil
}

// NotifyInstanceListChanged registers fn on the current connection and on
// every later one.
func (d *Redialer) NotifyInstanceListChanged(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
	if d.cur != nil {
		d.cur.NotifyInstanceListChanged(fn)
	}
}

func (d *Redialer) Invoke(ctx context.Context, command string, args any, out any) error {
	r, err := d.remote(ctx)
	if err != nil {
		return err
	}
	err = r.Invoke(ctx, command, args, out)
	if errors.Is(err, ErrClosed) {
		d.log.Info("connection lost, will reconnect")
	}
	return err
}

func (d *Redialer) Close() error {
	d.mu.Lock()
	r := d.cur
	d.cur = nil
	d.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.Close()
}
