package service

//go:generate mockgen -source=store.go -destination=mock_store_test.go -package=service

import (
	"context"
	"errors"
	"fmt"

	"exchange-backoffice-api/internal/models"

	"gorm.io/gorm"
)

// Store is the persistence the back office reads through the cache.
type Store interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	// GetClient returns ErrNotFound for an unknown id.
	GetClient(ctx context.Context, id string) (models.Client, error)
	CreateClient(ctx context.Context, client *models.Client) error
	// ListMovements returns every movement when clientID is empty.
	ListMovements(ctx context.Context, clientID string) ([]models.Movement, error)
	CreateMovement(ctx context.Context, movement *models.Movement) error
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Order("name asc").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (s *GormStore) GetClient(ctx context.Context, id string) (models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Client{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Client{}, fmt.Errorf("get client %s: %w", id, err)
	}
	return client, nil
}

func (s *GormStore) CreateClient(ctx context.Context, client *models.Client) error {
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *GormStore) ListMovements(ctx context.Context, clientID string) ([]models.Movement, error) {
	query := s.db.WithContext(ctx).Model(&models.Movement{})
	if clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var movements []models.Movement
	if err := query.Order("occurred_at desc").Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

func (s *GormStore) CreateMovement(ctx context.Context, movement *models.Movement) error {
	if err := s.db.WithContext(ctx).Create(movement).Error; err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}
