package store

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateAPIKey stores a new machine key
func (s *Store) CreateAPIKey(ctx context.Context, k *database.APIKey) error {
	if err := s.db.WithContext(ctx).Create(k).Error; err != nil {
		return fmt.Errorf("creating api key: %w", err)
	}
	return nil
}

// ListAPIKeys returns all stored keys
func (s *Store) ListAPIKeys(ctx context.Context) ([]database.APIKey, error) {
	var keys []database.APIKey
	if err := s.db.WithContext(ctx).Order("id").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	return keys, nil
}

// DeleteAPIKey revokes a key by id
func (s *Store) DeleteAPIKey(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&database.APIKey{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting api key: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAPIKey fetches the record for a verified key, creating it on first use,
// and stamps its last use. Revoked keys return ErrRevoked.
func (s *Store) TouchAPIKey(ctx context.Context, key, name string) (*database.APIKey, error) {
	var apiKey database.APIKey
	err := s.db.WithContext(ctx).Unscoped().
		Where(&database.APIKey{Key: key}).
		Limit(1).
		Find(&apiKey).Error
	if err != nil {
		return nil, fmt.Errorf("loading api key: %w", err)
	}
	if apiKey.DeletedAt.Valid {
		return nil, ErrRevoked
	}
	if apiKey.ID == 0 {
		apiKey = database.APIKey{
			Key:        key,
			Name:       name,
			KeyPreview: Preview(key),
			RateLimit:  10000,
		}
		if err := s.CreateAPIKey(ctx, &apiKey); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	apiKey.LastUsed = &now
	if err := s.db.WithContext(ctx).Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, fmt.Errorf("stamping api key: %w", err)
	}
	return &apiKey, nil
}

// Preview masks a key for display (e.g. abc...wxyz)
func Preview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// RecordUsage bumps today's counters for a key using an efficient upsert
func (s *Store) RecordUsage(ctx context.Context, keyID uint, resources, shifted int) error {
	today := time.Now().Format("2006-01-02")

	// OnConflict is supported by both Postgres and SQLite
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", 1),
			"total_resources": gorm.Expr("total_resources + ?", resources),
			"total_shifted":   gorm.Expr("total_shifted + ?", shifted),
		}),
	}).Create(&database.APIUsage{
		KeyID:          keyID,
		Date:           today,
		RequestCount:   1,
		TotalResources: resources,
		TotalShifted:   shifted,
	}).Error
	if err != nil {
		return fmt.Errorf("recording usage: %w", err)
	}
	return nil
}

// Usage returns the last 30 days of usage for a key, newest first
func (s *Store) Usage(ctx context.Context, keyID uint) ([]database.APIUsage, error) {
	var usage []database.APIUsage
	err := s.db.WithContext(ctx).
		Where("key_id = ?", keyID).
		Order("date desc").
		Limit(30).
		Find(&usage).Error
	if err != nil {
		return nil, fmt.Errorf("fetching usage: %w", err)
	}
	return usage, nil
}

// UpdateKeyLimit sets the daily request limit for a key
func (s *Store) UpdateKeyLimit(ctx context.Context, id uint, limit int) error {
	res := s.db.WithContext(ctx).Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", limit)
	if res.Error != nil {
		return fmt.Errorf("updating key limit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RequestsToday returns how many requests a key has made today
func (s *Store) RequestsToday(ctx context.Context, keyID uint) (int, error) {
	var usage database.APIUsage
	err := s.db.WithContext(ctx).
		Where("key_id = ? AND date = ?", keyID, time.Now().Format("2006-01-02")).
		Limit(1).
		Find(&usage).Error
	if err != nil {
		return 0, fmt.Errorf("fetching today's usage: %w", err)
	}
	return usage.RequestCount, nil
}
