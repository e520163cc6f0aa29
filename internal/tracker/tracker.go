// Package tracker implements the work-session lifecycle on top of the
// store: starting and closing sessions, day/week/range queries, and the
// at-most-one-open-session invariant.
package tracker

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chronoglass/chronod/internal/model"
	"github.com/chronoglass/chronod/internal/notify"
	"github.com/chronoglass/chronod/internal/store"
)

// Tracker exposes the session operations. Every mutating call runs its
// whole load-mutate-save sequence under a single mutex so concurrent
// writes never lose updates; reads run unlocked and may observe a
// document slightly older or newer than an in-flight write.
type Tracker struct {
	store    *store.Store
	notifier notify.Notifier
	logger   zerolog.Logger
	mu       sync.Mutex
	now      func() time.Time
}

// New creates a tracker over the given store, broadcasting on notifier
// after every successful mutation.
func New(st *store.Store, notifier notify.Notifier, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:    st,
		notifier: notifier,
		logger:   logger.With().Str("component", "tracker").Logger(),
		now:      time.Now,
	}
}

// GetAll returns the full current document.
func (t *Tracker) GetAll() model.AppData {
	return t.store.Load()
}

// GetByDay returns sessions whose date equals the given string exactly.
// The stored date string is the sole comparison key; no normalization.
func (t *Tracker) GetByDay(date string) []model.WorkSession {
	doc := t.store.Load()
	matched := []model.WorkSession{}
	for _, s := range doc.Sessions {
		if s.Date == date {
			matched = append(matched, s)
		}
	}
	return matched
}

// GetByWeek returns sessions whose date falls in the given ISO-8601
// week-numbering year and week. Sessions with unparseable dates are
// excluded silently.
func (t *Tracker) GetByWeek(year, week int) []model.WorkSession {
	doc := t.store.Load()
	matched := []model.WorkSession{}
	for _, s := range doc.Sessions {
		if s.InISOWeek(year, week) {
			matched = append(matched, s)
		}
	}
	return matched
}

// StartSession closes every open session (and its open sub-activities) at
// the current wall-clock time, then appends a new open session whose date
// is derived from startMillis. Starting always wins: the new start may be
// backdated, but stale sessions are closed at now, never retroactively.
// Returns the new session id.
func (t *Tracker) StartSession(title string, startMillis int64) (string, error) {
	date, err := model.DateOfMillis(startMillis)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.store.Load()
	nowMillis := t.now().UnixMilli()

	closed := 0
	for i := range doc.Sessions {
		s := &doc.Sessions[i]
		if !s.Open() {
			continue
		}
		end := nowMillis
		s.EndTime = &end
		for j := range s.SubActivities {
			if s.SubActivities[j].Open() {
				subEnd := nowMillis
				s.SubActivities[j].EndTime = &subEnd
			}
		}
		closed++
	}

	session := model.WorkSession{
		ID:        uuid.NewString(),
		StartTime: startMillis,
		Date:      date,
		SubActivities: []model.SubActivity{
			{
				ID:        uuid.NewString(),
				Title:     title,
				StartTime: startMillis,
			},
		},
	}
	doc.Sessions = append(doc.Sessions, session)

	if err := t.persist(doc); err != nil {
		return "", err
	}

	t.logger.Info().
		Str("sessionId", session.ID).
		Str("date", date).
		Int("closed", closed).
		Msg("Session started")

	return session.ID, nil
}

// AppendSession upserts a session by id: any existing session sharing its
// id is removed, then the given session is inserted verbatim. No invariant
// repair and no derived-field recomputation happen here; this is the
// caller-trusted edit/import path and may legitimately save an open
// session.
func (t *Tracker) AppendSession(session model.WorkSession) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.store.Load()
	kept := doc.Sessions[:0]
	for _, s := range doc.Sessions {
		if s.ID != session.ID {
			kept = append(kept, s)
		}
	}
	doc.Sessions = append(kept, session)

	if err := t.persist(doc); err != nil {
		return err
	}

	t.logger.Info().Str("sessionId", session.ID).Msg("Session appended")
	return nil
}

// OverwriteAll unconditionally replaces the entire document. This is the
// full import/restore path.
func (t *Tracker) OverwriteAll(doc model.AppData) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.persist(doc); err != nil {
		return err
	}

	t.logger.Info().Int("sessions", len(doc.Sessions)).Msg("Document overwritten")
	return nil
}

// ClearAll removes every session and keeps the settings.
func (t *Tracker) ClearAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.store.Load()
	doc.Sessions = []model.WorkSession{}

	if err := t.persist(doc); err != nil {
		return err
	}

	t.logger.Info().Msg("All sessions cleared")
	return nil
}

// ClearDay removes all sessions whose date equals the given string.
func (t *Tracker) ClearDay(date string) error {
	return t.clearMatching("day", func(s model.WorkSession) bool {
		return s.Date == date
	})
}

// ClearRange removes all sessions whose date falls lexicographically
// within [start, end] inclusive. For well-formed YYYY-MM-DD bounds this
// coincides with chronological order; malformed bounds still compare
// without crashing.
func (t *Tracker) ClearRange(start, end string) error {
	return t.clearMatching("range", func(s model.WorkSession) bool {
		return s.Date >= start && s.Date <= end
	})
}

func (t *Tracker) clearMatching(what string, match func(model.WorkSession) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.store.Load()
	kept := []model.WorkSession{}
	removed := 0
	for _, s := range doc.Sessions {
		if match(s) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	doc.Sessions = kept

	if err := t.persist(doc); err != nil {
		return err
	}

	t.logger.Info().Str("scope", what).Int("removed", removed).Msg("Sessions cleared")
	return nil
}

// ImportFile reads the given file and overwrites the backing store with
// its content verbatim. This is the unguarded bulk-import entry point used
// when the host is launched with a file-path argument.
func (t *Tracker) ImportFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.SaveRaw(string(content)); err != nil {
		return err
	}
	t.notifier.DataChanged()

	t.logger.Info().Str("path", path).Int("bytes", len(content)).Msg("Document imported")
	return nil
}

// persist saves the document and, on success, emits exactly one change
// notification. Callers hold the write mutex.
func (t *Tracker) persist(doc model.AppData) error {
	if err := t.store.Save(doc); err != nil {
		return err
	}
	t.notifier.DataChanged()
	return nil
}
