// Package storage persists the waiting pool, the session registry, reports
// and relayed-message history. PostgreSQL (via GORM) is authoritative for
// sessions and append-only records; the waiting pool lives in a Redis sorted
// set scored by enqueue time so FIFO dequeue stays cheap and deterministic.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"strangerchat/backend/internal/config"
	"strangerchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyActive is returned when an identity that already has a
	// session is enqueued or paired again.
	ErrAlreadyActive = errors.New("storage: identity already has an active session")
	// ErrAlreadyWaiting is returned when an identity is enqueued twice.
	ErrAlreadyWaiting = errors.New("storage: identity is already in the waiting pool")
	// ErrUnavailable wraps infrastructure faults (timeouts, lost connections).
	// It is the only storage error a caller may retry.
	ErrUnavailable = errors.New("storage: store unavailable")
)

// Storage is the store adapter the matchmaking engine runs against. Waiting
// pool and session mutations must each be atomic on their own; composing them
// into one pairing transition is the engine's job (it holds the pairing lock
// across the dequeue-then-create sequence).
type Storage interface {
	// Waiting pool.
	Enqueue(ctx context.Context, userID string, at time.Time) error
	TryDequeueAny(ctx context.Context, excludeID string) (*models.WaitingEntry, error)
	RemoveWaiting(ctx context.Context, userID string) error
	WaitingEntries(ctx context.Context) ([]models.WaitingEntry, error)

	// Session registry.
	CreatePair(ctx context.Context, a, b, nickname string, startedAt time.Time) error
	Lookup(ctx context.Context, userID string) (*models.Session, error)
	EndFor(ctx context.Context, userID string) (partnerID string, err error)

	// Append-only records.
	SaveReport(ctx context.Context, report *models.Report) error
	SaveMessage(ctx context.Context, msg *models.ChatHistory) error

	// Users.
	SaveUserIfNotExists(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUserLanguage(ctx context.Context, userID, lang string) error
}

// Service implements Storage over PostgreSQL and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewService constructs the combined store.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

// opCtx bounds a single store operation so a dead backend surfaces as an
// error instead of a hang.
func opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, config.StoreOpTimeout)
}

// Enqueue adds userID to the waiting pool. It refuses identities that already
// hold a session or are already queued.
func (s *Service) Enqueue(ctx context.Context, userID string, at time.Time) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	session, err := s.lookupDB(ctx, userID)
	if err != nil {
		return err
	}
	if session != nil {
		return ErrAlreadyActive
	}

	added, err := s.Redis.ZAddNX(ctx, config.WaitingQueueKey, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: userID,
	}).Result()
	if err != nil {
		return wrapUnavailable(err)
	}
	if added == 0 {
		return ErrAlreadyWaiting
	}
	return nil
}

// TryDequeueAny removes and returns the oldest waiting identity other than
// excludeID, or nil when nobody suitable is waiting. Ordering is enqueue time
// first, identity second (Redis orders equal scores lexically), which keeps
// the pairing policy reproducible in tests.
func (s *Service) TryDequeueAny(ctx context.Context, excludeID string) (*models.WaitingEntry, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	// Two candidates cover the case where the oldest entry is the caller.
	zs, err := s.Redis.ZRangeWithScores(ctx, config.WaitingQueueKey, 0, 1).Result()
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok || member == excludeID {
			continue
		}
		if err := s.Redis.ZRem(ctx, config.WaitingQueueKey, member).Err(); err != nil {
			return nil, wrapUnavailable(err)
		}
		return &models.WaitingEntry{
			UserID:     member,
			EnqueuedAt: time.Unix(0, int64(z.Score)),
		}, nil
	}
	return nil, nil
}

// RemoveWaiting drops userID from the waiting pool. Removing an identity that
// is not queued is not an error.
func (s *Service) RemoveWaiting(ctx context.Context, userID string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	if err := s.Redis.ZRem(ctx, config.WaitingQueueKey, userID).Err(); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// WaitingEntries returns the whole pool in dequeue order, for ops tooling.
func (s *Service) WaitingEntries(ctx context.Context) ([]models.WaitingEntry, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	zs, err := s.Redis.ZRangeWithScores(ctx, config.WaitingQueueKey, 0, -1).Result()
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	entries := make([]models.WaitingEntry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		entries = append(entries, models.WaitingEntry{
			UserID:     member,
			EnqueuedAt: time.Unix(0, int64(z.Score)),
		})
	}
	return entries, nil
}

// CreatePair installs both mirror rows for a new session in one transaction.
// The primary key on sessions.user_id makes double-pairing a constraint
// violation rather than silent corruption.
func (s *Service) CreatePair(ctx context.Context, a, b, nickname string, startedAt time.Time) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	rows := []models.Session{
		{UserID: a, PartnerID: b, Nickname: nickname, StartedAt: startedAt},
		{UserID: b, PartnerID: a, Nickname: nickname, StartedAt: startedAt},
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyActive
		}
		return wrapUnavailable(err)
	}

	s.cacheSessions(ctx, rows)
	return nil
}

// Lookup returns the session keyed by userID, or nil when the identity is not
// paired. The Redis cache is consulted first; PostgreSQL stays authoritative.
func (s *Service) Lookup(ctx context.Context, userID string) (*models.Session, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	val, err := s.Redis.Get(ctx, config.SessionCachePrefix+userID).Result()
	if err == nil {
		var session models.Session
		if err := json.Unmarshal([]byte(val), &session); err == nil {
			return &session, nil
		}
		// Corrupt cache entry: fall through to the database.
		log.Printf("WARN: dropping unreadable session cache entry for %s", userID)
		s.Redis.Del(ctx, config.SessionCachePrefix+userID)
	} else if !errors.Is(err, redis.Nil) {
		return nil, wrapUnavailable(err)
	}

	session, err := s.lookupDB(ctx, userID)
	if err != nil || session == nil {
		return nil, err
	}
	s.cacheSessions(ctx, []models.Session{*session})
	return session, nil
}

// EndFor tears down the session userID belongs to, removing both mirror rows
// atomically, and returns the former partner. Returns "" when userID has no
// session.
func (s *Service) EndFor(ctx context.Context, userID string) (string, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	session, err := s.lookupDB(ctx, userID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", nil
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("user_id IN ?", []string{session.UserID, session.PartnerID}).
			Delete(&models.Session{}).Error
	})
	if err != nil {
		return "", wrapUnavailable(err)
	}

	// The rows are gone; a failed invalidation must surface as retryable,
	// or Lookup would keep serving the deleted session from cache.
	err = s.Redis.Del(ctx,
		config.SessionCachePrefix+session.UserID,
		config.SessionCachePrefix+session.PartnerID,
	).Err()
	if err != nil {
		return "", wrapUnavailable(err)
	}
	return session.PartnerID, nil
}

func (s *Service) lookupDB(ctx context.Context, userID string) (*models.Session, error) {
	var session models.Session
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return &session, nil
}

// cacheSessions refreshes the Redis lookup cache. Cache writes are best
// effort: a failed SET only costs the next Lookup a database round trip.
// Entries expire so a stale one can only outlive its row by the TTL.
func (s *Service) cacheSessions(ctx context.Context, sessions []models.Session) {
	for _, session := range sessions {
		data, err := json.Marshal(session)
		if err != nil {
			continue
		}
		if err := s.Redis.Set(ctx, config.SessionCachePrefix+session.UserID, data, config.SessionCacheTTL).Err(); err != nil {
			log.Printf("WARN: failed to cache session for %s: %v", session.UserID, err)
		}
	}
}

func wrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUnavailable, err)
}
