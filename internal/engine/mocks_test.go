package engine_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"strangerchat/backend/internal/models"
	"strangerchat/backend/internal/storage"
)

// fakeStore is an in-memory Storage honoring the same contracts as the real
// Redis/Postgres service: FIFO waiting pool with identity tie-break, mirror
// session rows, append-only records. set fail to simulate an outage.
type fakeStore struct {
	mu         sync.Mutex
	waiting    []models.WaitingEntry
	sessions   map[string]models.Session
	reports    []models.Report
	history    []models.ChatHistory
	fail       bool
	createFail bool
	endFail    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]models.Session)}
}

func (f *fakeStore) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

// failNextCreate makes the next CreatePair fail once, after any dequeue has
// already happened.
func (f *fakeStore) failNextCreate() {
	f.mu.Lock()
	f.createFail = true
	f.mu.Unlock()
}

// failNextEnd makes the next EndFor delete the session rows but still report
// a fault, the shape of a teardown whose registry delete committed while the
// cache invalidation did not.
func (f *fakeStore) failNextEnd() {
	f.mu.Lock()
	f.endFail = true
	f.mu.Unlock()
}

func (f *fakeStore) unavailable() error {
	return errors.Join(storage.ErrUnavailable, errors.New("fake outage"))
}

func (f *fakeStore) Enqueue(ctx context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return f.unavailable()
	}
	if _, ok := f.sessions[userID]; ok {
		return storage.ErrAlreadyActive
	}
	for _, e := range f.waiting {
		if e.UserID == userID {
			return storage.ErrAlreadyWaiting
		}
	}
	f.waiting = append(f.waiting, models.WaitingEntry{UserID: userID, EnqueuedAt: at})
	sort.Slice(f.waiting, func(i, j int) bool {
		if !f.waiting[i].EnqueuedAt.Equal(f.waiting[j].EnqueuedAt) {
			return f.waiting[i].EnqueuedAt.Before(f.waiting[j].EnqueuedAt)
		}
		return f.waiting[i].UserID < f.waiting[j].UserID
	})
	return nil
}

func (f *fakeStore) TryDequeueAny(ctx context.Context, excludeID string) (*models.WaitingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, f.unavailable()
	}
	for i, e := range f.waiting {
		if e.UserID == excludeID {
			continue
		}
		entry := e
		f.waiting = append(f.waiting[:i], f.waiting[i+1:]...)
		return &entry, nil
	}
	return nil, nil
}

func (f *fakeStore) RemoveWaiting(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return f.unavailable()
	}
	for i, e := range f.waiting {
		if e.UserID == userID {
			f.waiting = append(f.waiting[:i], f.waiting[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) WaitingEntries(ctx context.Context) ([]models.WaitingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, f.unavailable()
	}
	return append([]models.WaitingEntry(nil), f.waiting...), nil
}

func (f *fakeStore) CreatePair(ctx context.Context, a, b, nickname string, startedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return f.unavailable()
	}
	if f.createFail {
		f.createFail = false
		return f.unavailable()
	}
	if _, ok := f.sessions[a]; ok {
		return storage.ErrAlreadyActive
	}
	if _, ok := f.sessions[b]; ok {
		return storage.ErrAlreadyActive
	}
	f.sessions[a] = models.Session{UserID: a, PartnerID: b, Nickname: nickname, StartedAt: startedAt}
	f.sessions[b] = models.Session{UserID: b, PartnerID: a, Nickname: nickname, StartedAt: startedAt}
	return nil
}

func (f *fakeStore) Lookup(ctx context.Context, userID string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, f.unavailable()
	}
	s, ok := f.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStore) EndFor(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", f.unavailable()
	}
	s, ok := f.sessions[userID]
	if !ok {
		return "", nil
	}
	delete(f.sessions, s.UserID)
	delete(f.sessions, s.PartnerID)
	if f.endFail {
		f.endFail = false
		return "", f.unavailable()
	}
	return s.PartnerID, nil
}

func (f *fakeStore) SaveReport(ctx context.Context, report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return f.unavailable()
	}
	if report.Reason == "" {
		report.Reason = models.DefaultReportReason
	}
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakeStore) SaveMessage(ctx context.Context, msg *models.ChatHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return f.unavailable()
	}
	f.history = append(f.history, *msg)
	return nil
}

func (f *fakeStore) SaveUserIfNotExists(ctx context.Context, telegramID int64) (*models.User, error) {
	return &models.User{TelegramID: telegramID, Language: "en"}, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return nil, nil
}

func (f *fakeStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return nil, nil
}

func (f *fakeStore) UpdateUserLanguage(ctx context.Context, userID, lang string) error {
	return nil
}

// isWaiting and isPaired inspect store state for invariant checks.
func (f *fakeStore) isWaiting(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.waiting {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func (f *fakeStore) isPaired(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[userID]
	return ok
}

// recordNotifier collects every notification per identity, in delivery order.
type recordNotifier struct {
	mu   sync.Mutex
	sent map[string][]models.Notification
}

func newRecordNotifier() *recordNotifier {
	return &recordNotifier{sent: make(map[string][]models.Notification)}
}

func (r *recordNotifier) Notify(ctx context.Context, userID string, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[userID] = append(r.sent[userID], n)
	return nil
}

func (r *recordNotifier) kinds(userID string) []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]models.NotificationKind, 0, len(r.sent[userID]))
	for _, n := range r.sent[userID] {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func (r *recordNotifier) last(userID string) (models.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns := r.sent[userID]
	if len(ns) == 0 {
		return models.Notification{}, false
	}
	return ns[len(ns)-1], true
}

// slowNotifier stalls delivery for one identity until released, passing
// everything else through to the wrapped recorder.
type slowNotifier struct {
	inner    *recordNotifier
	blockFor string
	release  chan struct{}
}

func (s *slowNotifier) Notify(ctx context.Context, userID string, n models.Notification) error {
	if userID == s.blockFor {
		<-s.release
	}
	return s.inner.Notify(ctx, userID, n)
}

func (r *recordNotifier) messages(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var texts []string
	for _, n := range r.sent[userID] {
		if n.Kind == models.KindMessage {
			texts = append(texts, n.Data)
		}
	}
	return texts
}
