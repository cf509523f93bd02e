package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lodge-push-backend/internal/model"
)

// ErrValidation is returned when a subscription write is missing a required
// field. It maps to a 4xx at the HTTP layer and is never retried.
var ErrValidation = errors.New("invalid subscription record")

// Subscription is the browser-side subscription material as posted by the
// client: the push-service endpoint plus the encryption keys for it.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256DH string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Store defines the interface for subscription persistence.
type Store interface {
	// Upsert registers a subscription for a user. Any existing record with
	// the same endpoint is replaced, regardless of which user owned it.
	Upsert(ctx context.Context, userID string, sub Subscription) error
	// ListByUser returns all current subscriptions for a user.
	ListByUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	// Remove deletes the record for an endpoint. Removing an absent
	// endpoint is not an error.
	Remove(ctx context.Context, endpoint string) error
	// DB exposes the underlying handle for migrations and tests.
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Upsert(ctx context.Context, userID string, sub Subscription) error {
	if userID == "" || sub.Endpoint == "" {
		return fmt.Errorf("%w: user id and endpoint are required", ErrValidation)
	}

	record := model.PushSubscription{
		Endpoint: sub.Endpoint,
		UserID:   userID,
		P256DH:   sub.Keys.P256DH,
		Auth:     sub.Keys.Auth,
	}

	// The endpoint is the primary key, so a device that re-subscribes after
	// a reinstall (possibly as a different user) replaces its old row
	// instead of leaving an orphan behind.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
		}).Create(&record).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert subscription for %s: %w", sub.Endpoint, err)
	}
	return nil
}

func (s *gormStore) ListByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}

func (s *gormStore) Remove(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to remove subscription %s: %w", endpoint, err)
	}
	return nil
}
