package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrBotNotFound is returned when no bot matches a lookup.
	ErrBotNotFound = errors.New("bot not found")
	// ErrDuplicateSecretKey is returned when a bot is created with a secret
	// key another bot already holds.
	ErrDuplicateSecretKey = errors.New("secret key already in use")
)

// BotStore reads and writes bot records.
type BotStore struct {
	db *gorm.DB
}

func NewBotStore(db *gorm.DB) *BotStore {
	return &BotStore{db: db}
}

// FindPublic returns the active bot matching both secretKey and website.
// Only the public display columns are loaded.
func (s *BotStore) FindPublic(ctx context.Context, secretKey, website string) (*Bot, error) {
	var bot Bot
	err := s.db.WithContext(ctx).
		Select("id", "name", "primary_color", "status").
		Where("secret_key = ? AND website = ? AND status = ?", secretKey, website, BotStatusActive).
		First(&bot).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &bot, nil
}

// FindActiveBySecret returns the active bot holding secretKey, with its owner loaded.
func (s *BotStore) FindActiveBySecret(ctx context.Context, secretKey string) (*Bot, error) {
	var bot Bot
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("secret_key = ? AND status = ?", secretKey, BotStatusActive).
		First(&bot).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &bot, nil
}

func (s *BotStore) Get(ctx context.Context, id uint) (*Bot, error) {
	var bot Bot
	if err := s.db.WithContext(ctx).First(&bot, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &bot, nil
}

// List returns every bot, or only those owned by ownerID when it is non-zero.
func (s *BotStore) List(ctx context.Context, ownerID uint) ([]Bot, error) {
	q := s.db.WithContext(ctx).Order("id")
	if ownerID != 0 {
		q = q.Where("user_id = ?", ownerID)
	}
	var bots []Bot
	if err := q.Find(&bots).Error; err != nil {
		return nil, err
	}
	return bots, nil
}

// Create inserts b. The BeforeCreate hook provisions its secret and status.
func (s *BotStore) Create(ctx context.Context, b *Bot) error {
	err := s.db.WithContext(ctx).Create(b).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSecretKey
	}
	return err
}

// Update applies the non-zero fields of changes to bot id. The stored row is
// read first so BeforeWrite can backfill a missing secret or refuse to
// replace an existing one; if that read fails the update is aborted.
func (s *BotStore) Update(ctx context.Context, id uint, changes *Bot) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load bot %d before update: %w", id, err)
	}
	if err := BeforeWrite(existing, changes); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&Bot{ID: id}).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBotNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBotNotFound
	}
	return err
}
