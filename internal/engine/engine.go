// Package engine implements the matchmaking and relay core: who is waiting,
// who is paired with whom, and how pairing transitions stay consistent when
// many identities act at once. Transports feed it classified commands and
// receive notifications back through the Notifier; they never touch the
// waiting pool or the session registry directly.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"strangerchat/backend/internal/models"
	"strangerchat/backend/internal/storage"
)

var (
	// ErrAlreadyActive: the identity tried to pair while paired. Re-pairing
	// in place would silently orphan the current partner, so it is rejected.
	ErrAlreadyActive = storage.ErrAlreadyActive
	// ErrAlreadyWaiting: the identity is already queued. Defensive; Next
	// handles it by re-reporting the waiting state.
	ErrAlreadyWaiting = storage.ErrAlreadyWaiting
	// ErrNotPaired: a message arrived from an identity with no session.
	ErrNotPaired = errors.New("engine: identity has no active session")
	// ErrStoreUnavailable: transient infrastructure fault; the caller may
	// retry the whole command.
	ErrStoreUnavailable = storage.ErrUnavailable
)

// Notifier is the outbound side of a transport: it delivers one notification
// to one identity. Delivery is best effort; a failed Notify never rolls back
// the state transition that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID string, n models.Notification) error
}

// Engine is the matchmaking state machine. Each identity is in exactly one of
// three states at any instant: idle, waiting, or paired. All transitions go
// through Next and Stop; Forward and Report read but never move state.
type Engine struct {
	store    storage.Storage
	notifier Notifier

	// mu serializes the check/dequeue/create sequence of Next and the
	// teardown of Stop. Contention is per-command, not per-message, so a
	// single lock is enough; Forward deliberately runs outside it, and
	// outcome notifications are delivered only after the lock is released
	// so a slow transport never stalls other identities' transitions.
	mu sync.Mutex

	now      func() time.Time
	nickname func() string
}

// New constructs an engine over the given store and notification sink.
func New(store storage.Storage, notifier Notifier) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		nickname: randomNickname,
	}
}

// Handle dispatches one classified command. Every outcome, including a
// rejected command, is reported back to the user; errors returned here are
// for the caller's log only.
func (e *Engine) Handle(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CommandStart:
		e.notify(ctx, cmd.UserID, models.KindWelcome, "")
		return nil
	case CommandHelp:
		e.notify(ctx, cmd.UserID, models.KindHelp, "")
		return nil
	case CommandNext:
		return e.Next(ctx, cmd.UserID)
	case CommandStop:
		return e.Stop(ctx, cmd.UserID)
	case CommandMessage:
		return e.Forward(ctx, cmd.UserID, cmd.Text)
	case CommandReport:
		return e.Report(ctx, cmd.UserID, cmd.Text)
	default:
		e.notify(ctx, cmd.UserID, models.KindUnknownCommand, "")
		return nil
	}
}

// pendingNote is an outcome notification composed under the engine lock and
// delivered after it is released. Transport delivery can block on the
// network and must never extend the critical section.
type pendingNote struct {
	userID string
	kind   models.NotificationKind
	data   string
}

func tryAgainNote(userID string) []pendingNote {
	return []pendingNote{{userID: userID, kind: models.KindTryAgain}}
}

func (e *Engine) deliver(ctx context.Context, notes []pendingNote) {
	for _, p := range notes {
		e.notify(ctx, p.userID, p.kind, p.data)
	}
}

// Next moves userID toward a pairing: if another identity is waiting, both
// become paired under a fresh nickname; otherwise userID joins the waiting
// pool. An identity that already has a session is told to stop first.
func (e *Engine) Next(ctx context.Context, userID string) error {
	notes, err := e.nextLocked(ctx, userID)
	e.deliver(ctx, notes)
	return err
}

func (e *Engine) nextLocked(ctx context.Context, userID string) ([]pendingNote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.store.Lookup(ctx, userID)
	if err != nil {
		return tryAgainNote(userID), e.storeFault(err)
	}
	if session != nil {
		return []pendingNote{{userID: userID, kind: models.KindAlreadyActive}}, ErrAlreadyActive
	}

	entry, err := e.store.TryDequeueAny(ctx, userID)
	if err != nil {
		return tryAgainNote(userID), e.storeFault(err)
	}
	if entry == nil {
		return e.enqueueLocked(ctx, userID)
	}

	nickname := e.nickname()
	if err := e.store.CreatePair(ctx, userID, entry.UserID, nickname, e.now()); err != nil {
		// The candidate was already dequeued; put it back at its original
		// position before surfacing the fault.
		if rerr := e.store.Enqueue(ctx, entry.UserID, entry.EnqueuedAt); rerr != nil {
			log.Printf("ERROR: failed to restore waiting entry for %s: %v", entry.UserID, rerr)
		}
		return tryAgainNote(userID), e.storeFault(err)
	}

	return []pendingNote{
		{userID: userID, kind: models.KindConnected, data: nickname},
		{userID: entry.UserID, kind: models.KindConnected, data: nickname},
	}, nil
}

func (e *Engine) enqueueLocked(ctx context.Context, userID string) ([]pendingNote, error) {
	err := e.store.Enqueue(ctx, userID, e.now())
	switch {
	case err == nil, errors.Is(err, ErrAlreadyWaiting):
		// A repeated /next while queued keeps the original position.
		return []pendingNote{{userID: userID, kind: models.KindWaiting}}, nil
	default:
		return tryAgainNote(userID), e.storeFault(err)
	}
}

// Stop ends userID's session if one exists, notifying both sides, or cancels
// its waiting entry otherwise. Calling Stop with no state at all is not an
// error; the user is simply told they are not chatting.
func (e *Engine) Stop(ctx context.Context, userID string) error {
	notes, err := e.stopLocked(ctx, userID)
	e.deliver(ctx, notes)
	return err
}

func (e *Engine) stopLocked(ctx context.Context, userID string) ([]pendingNote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	partnerID, err := e.store.EndFor(ctx, userID)
	if err != nil {
		return tryAgainNote(userID), e.storeFault(err)
	}
	if partnerID != "" {
		return []pendingNote{
			{userID: partnerID, kind: models.KindPartnerLeft},
			{userID: userID, kind: models.KindYouLeft},
		}, nil
	}

	if err := e.store.RemoveWaiting(ctx, userID); err != nil {
		return tryAgainNote(userID), e.storeFault(err)
	}
	return []pendingNote{{userID: userID, kind: models.KindNotChatting}}, nil
}

// Forward relays text from userID to its partner. The relay's contract ends
// at handing the payload to the transport: an unreachable partner is still
// paired until someone calls Stop. Messages from one sender are delivered in
// call order because Forward sends synchronously.
func (e *Engine) Forward(ctx context.Context, userID, text string) error {
	session, err := e.store.Lookup(ctx, userID)
	if err != nil {
		e.notify(ctx, userID, models.KindTryAgain, "")
		return e.storeFault(err)
	}
	if session == nil {
		e.notify(ctx, userID, models.KindNotPaired, "")
		return ErrNotPaired
	}

	e.notify(ctx, session.PartnerID, models.KindTyping, "")
	e.notify(ctx, session.PartnerID, models.KindMessage, text)

	if err := e.store.SaveMessage(ctx, &models.ChatHistory{
		SenderID:    userID,
		RecipientID: session.PartnerID,
		Content:     text,
	}); err != nil {
		// History is write-only bookkeeping; the relay already happened.
		log.Printf("ERROR: failed to record message %s -> %s: %v", userID, session.PartnerID, err)
	}
	return nil
}

// Report appends a complaint. Reports are independent of session state: the
// reported partner may already be gone.
func (e *Engine) Report(ctx context.Context, userID, reason string) error {
	if err := e.store.SaveReport(ctx, &models.Report{
		ReporterID: userID,
		Reason:     reason,
	}); err != nil {
		e.notify(ctx, userID, models.KindTryAgain, "")
		return e.storeFault(err)
	}
	e.notify(ctx, userID, models.KindReportReceived, "")
	return nil
}

// storeFault tags an infrastructure fault as retryable.
func (e *Engine) storeFault(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}

func (e *Engine) notify(ctx context.Context, userID string, kind models.NotificationKind, data string) {
	if err := e.notifier.Notify(ctx, userID, models.Notification{Kind: kind, Data: data}); err != nil {
		log.Printf("WARN: failed to notify %s (%s): %v", userID, kind, err)
	}
}
