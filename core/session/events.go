package session

import "github.com/trezcool/mahudhurio/core/user"

type EventKind int

const (
	EventLoggedIn EventKind = iota + 1
	EventLoggedOut
	// EventExpired is published when the API reported the token as unauthorized.
	EventExpired
)

func (k EventKind) String() string {
	switch k {
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	case EventExpired:
		return "expired"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind EventKind
	User *user.Profile
}

// Subscribe registers fn for session changes and returns a func removing it.
// fn is called synchronously, outside of the session lock.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Service) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
