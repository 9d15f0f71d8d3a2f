package fakesessionrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/telecare/auth-server/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type storedSession struct {
	session sessions.Session
	seq     int64 // insertion order, breaks CreatedAt ties
}

type FakeSessionRepo struct {
	sessions map[string]storedSession
	seq      int64
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]storedSession),
	}
}

func (sr *FakeSessionRepo) Create(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.seq++
	sr.sessions[session.ID] = storedSession{session: *session, seq: sr.seq}
	return nil
}

func (sr *FakeSessionRepo) Get(_ context.Context, sessionID string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	stored, ok := sr.sessions[sessionID]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	s := stored.session
	return &s, nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, sessionID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.sessions[sessionID]; !ok {
		return sessions.ErrNotFound
	}
	delete(sr.sessions, sessionID)
	return nil
}

func (sr *FakeSessionRepo) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var n int64
	for id, stored := range sr.sessions {
		if stored.session.UserID == userID {
			delete(sr.sessions, id)
			n++
		}
	}
	return n, nil
}

func (sr *FakeSessionRepo) DeleteAllButNewest(_ context.Context, userID string, keep int) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	owned := sr.newestFirst(userID)
	if keep < 0 {
		keep = 0
	}
	var n int64
	for i := keep; i < len(owned); i++ {
		delete(sr.sessions, owned[i].session.ID)
		n++
	}
	return n, nil
}

func (sr *FakeSessionRepo) ListByUser(_ context.Context, userID string) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	owned := sr.newestFirst(userID)
	out := make([]*sessions.Session, 0, len(owned))
	for _, stored := range owned {
		s := stored.session
		out = append(out, &s)
	}
	return out, nil
}

func (sr *FakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var n int64
	for id, stored := range sr.sessions {
		if stored.session.Expired(now) {
			delete(sr.sessions, id)
			n++
		}
	}
	return n, nil
}

// newestFirst must be called with the lock held.
func (sr *FakeSessionRepo) newestFirst(userID string) []storedSession {
	var owned []storedSession
	for _, stored := range sr.sessions {
		if stored.session.UserID == userID {
			owned = append(owned, stored)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.session.CreatedAt.Equal(b.session.CreatedAt) {
			return a.session.CreatedAt.After(b.session.CreatedAt)
		}
		return a.seq > b.seq
	})
	return owned
}
