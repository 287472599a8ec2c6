package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-door/internal/flow"
	"github.com/joeblew999/plat-door/internal/geo"
	"github.com/joeblew999/plat-door/internal/mapview"
	"github.com/joeblew999/plat-door/internal/position"
)

// Session is one browser tab working through the picker. It owns the pin
// cell, the current page's map view and the flow.
type Session struct {
	ID string

	mu      sync.Mutex
	flow    *flow.Flow
	pin     *position.Cell
	view    *mapview.View
	stop    []func()
	touched time.Time
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	ID    string
	State flow.State
	Draft flow.Draft
	GPS   string
	Map   mapview.ClientConfig
}

func newSession(id string, f *flow.Flow) *Session {
	s := &Session{ID: id, flow: f}
	if p := f.Draft().Position; p != nil {
		s.pin = position.NewCell(*p)
	} else {
		s.pin = position.NewEmptyCell()
	}
	return s
}

// attach replaces the map view, disposing the previous one. Map gestures
// write the pin through the Map channel.
func (s *Session) attach(v *mapview.View) {
	for _, stop := range s.stop {
		stop()
	}
	if s.view != nil {
		s.view.Dispose()
	}
	s.view = v
	s.stop = []func(){
		// listeners run inside DragEnd/DoubleClick, with s.mu held
		v.OnPositionChange(func(c geo.Coordinate) {
			if s.pin.Set(position.ChannelMap, c) {
				s.follow(c)
			}
		}),
	}
}

// follow recentres the map and records c in the draft. Callers hold s.mu.
func (s *Session) follow(c geo.Coordinate) {
	_, zoom := s.view.Center()
	_ = s.view.Recenter(c, zoom)
	_ = s.view.SetMarker(c)
	_ = s.flow.Update(func(d flow.Draft) flow.Draft { return d.WithPosition(c) })
}

// Pin exposes the pin cell for subscription.
func (s *Session) Pin() *position.Cell {
	return s.pin
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:    s.ID,
		State: s.flow.State(),
		Draft: s.flow.Draft(),
		GPS:   s.pin.Text(),
		Map:   s.view.ClientConfig(),
	}
}

// Locate resolves the device position, falling back to the default, and
// moves the pin there.
func (s *Session) Locate(ctx context.Context, src position.Fallback) Snapshot {
	c, _ := src.Resolve(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pin.Set(position.ChannelGeolocation, c) {
		s.follow(c)
	}
	return s.snapshot()
}

// TypeGPS handles an edit of the GPS text field. Malformed text changes
// nothing but the field itself.
func (s *Session) TypeGPS(raw string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.pin.SetText(raw)
	if ok {
		c, _ := s.pin.Get()
		s.follow(c)
	}
	return s.snapshot(), ok
}

// DragEnd forwards a pin drag to the map view.
func (s *Session) DragEnd(c geo.Coordinate) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.view.DragEnd(c)
	return s.snapshot(), err
}

// DoubleClick forwards a map double-click to the map view.
func (s *Session) DoubleClick(c geo.Coordinate) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.view.DoubleClick(c)
	return s.snapshot(), err
}

// MapLoaded records whether the browser map library came up.
func (s *Session) MapLoaded(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.view.MarkFailed(err)
		return
	}
	s.view.MarkLoaded()
}

// SetLayer switches the base layer.
func (s *Session) SetLayer(l mapview.BaseLayer) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.view.SetBaseLayer(l)
	return s.snapshot(), err
}

// Edit applies fn to the draft.
func (s *Session) Edit(fn func(flow.Draft) flow.Draft) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.flow.Update(fn)
	return s.snapshot(), err
}

// ConfirmPin moves from picking to confirming with the current pin.
func (s *Session) ConfirmPin() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.pin.Get()
	if !ok {
		return s.snapshot(), flow.ErrPositionRequired
	}
	err := s.flow.ConfirmPin(c)
	return s.snapshot(), err
}

// AcceptPin moves from confirming to the details form.
func (s *Session) AcceptPin() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.flow.AcceptPin()
	return s.snapshot(), err
}

// Save validates and marks the draft submitted.
func (s *Session) Save() (flow.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Save()
}

// Reopen returns to the details form after a failed submit.
func (s *Session) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Reopen()
}

// Cancel steps back one state.
func (s *Session) Cancel() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.flow.Cancel()
	return s.snapshot(), ok
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stop := range s.stop {
		stop()
	}
	if s.view != nil {
		s.view.Dispose()
	}
	s.pin.Close()
}

// SessionService keeps picker sessions in memory and expires idle ones.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewSessionService creates a new session service.
func NewSessionService(ttl time.Duration, log logrus.FieldLogger) *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Open binds a page load to a session. An existing session id keeps its
// flow when the flow is already at state (the user got here by a
// transition); otherwise the flow is rebuilt from draft at state. Either
// way the page's new view replaces the old one.
func (s *SessionService) Open(id string, state flow.State, draft flow.Draft, view *mapview.View) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || id == "" {
		sess = newSession(uuid.NewString(), flow.Resume(state, draft))
		s.sessions[sess.ID] = sess
		s.log.WithFields(logrus.Fields{"session": sess.ID, "state": state}).Debug("Opened picker session")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.flow.State() != state {
		sess.flow = flow.Resume(state, draft)
		if draft.Position != nil {
			sess.pin.Set(position.ChannelMap, *draft.Position)
		}
	}
	sess.attach(view)
	sess.touched = s.now()
	return sess
}

// Get returns a live session and marks it used.
func (s *SessionService) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.mu.Lock()
		sess.touched = s.now()
		sess.mu.Unlock()
	}
	return sess, ok
}

// End closes a session.
func (s *SessionService) End(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (s *SessionService) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.touched.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		s.log.WithField("expired", len(expired)).Debug("Swept picker sessions")
	}
	return len(expired)
}

// Run sweeps until ctx is done.
func (s *SessionService) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
