package storage

import (
	"context"
	"errors"

	"strangerchat/backend/internal/models"

	"gorm.io/gorm"
)

// SaveReport appends a complaint record. Reports are immutable; there is no
// update or delete path.
func (s *Service) SaveReport(ctx context.Context, report *models.Report) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	if report.Reason == "" {
		report.Reason = models.DefaultReportReason
	}
	if err := s.DB.WithContext(ctx).Create(report).Error; err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// RecentReports returns the newest reports first, for the admin CLI.
func (s *Service) RecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var reports []models.Report
	err := s.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&reports).Error
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return reports, nil
}

// SaveMessage appends a relayed message to the history log.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatHistory) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// SaveUserIfNotExists upserts a user row on first contact from Telegram and
// returns it. The BeforeCreate hook mints the opaque identity.
func (s *Service) SaveUserIfNotExists(ctx context.Context, telegramID int64) (*models.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var user models.User
	result := s.DB.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		FirstOrCreate(&user, models.User{TelegramID: telegramID})
	if result.Error != nil {
		return nil, wrapUnavailable(result.Error)
	}
	return &user, nil
}

// GetUserByID fetches a user by opaque identity. Returns nil when unknown.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return &user, nil
}

// GetUserByTelegramID fetches a user by Telegram chat id. Returns nil when
// unknown.
func (s *Service) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var user models.User
	err := s.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return &user, nil
}

// UpdateUserLanguage stores the catalog code used for this user's outbound
// texts.
func (s *Service) UpdateUserLanguage(ctx context.Context, userID, lang string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("language", lang).Error
	if err != nil {
		return wrapUnavailable(err)
	}
	return nil
}
