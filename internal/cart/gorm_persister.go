package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/checkout-flow/pkg/db/models"
)

// GormPersister stores records in the checkout_sessions table.
type GormPersister struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormPersister binds the persister to a database handle. A zero ttl keeps
// records forever.
func NewGormPersister(db *gorm.DB, ttl time.Duration) (*GormPersister, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	return &GormPersister{db: db, ttl: ttl, now: time.Now}, nil
}

// Load implements Persister. Expired rows are treated as missing.
func (p *GormPersister) Load(ctx context.Context, key string) (*State, error) {
	var row models.CheckoutSession
	err := p.db.WithContext(ctx).
		Where("session_key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", p.now().UTC()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("load checkout state: %w", err)
	}
	return decodeState([]byte(row.Payload))
}

// Save implements Persister by upserting the whole record.
func (p *GormPersister) Save(ctx context.Context, key string, state State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	now := p.now().UTC()
	row := models.CheckoutSession{
		SessionKey: key,
		Payload:    string(payload),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.ttl > 0 {
		expires := now.Add(p.ttl)
		row.ExpiresAt = &expires
	}
	err = p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save checkout state: %w", err)
	}
	return nil
}
