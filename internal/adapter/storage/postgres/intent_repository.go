package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

type IntentRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewIntentRepository(db *gorm.DB, log *zap.Logger) ports.IntentRepository {
	return &IntentRepository{
		db:  db,
		log: log,
	}
}

func (r *IntentRepository) Save(ctx context.Context, rec *domain.IntentRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *IntentRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.IntentRecord, error) {
	var rec domain.IntentRecord
	err := r.db.WithContext(ctx).First(&rec, "provider_id = ?", providerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *IntentRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.IntentRecord, error) {
	var rec domain.IntentRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *IntentRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.IntentRecord, error) {
	var recs []domain.IntentRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	return recs, err
}
