package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"exchange-backoffice-api/internal/cache"
	"exchange-backoffice-api/internal/models"
	"exchange-backoffice-api/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

const (
	keyAllClients   = "clients:all"
	keyClientPrefix = "client:"
	keyAllMovements = "movements:all"
	keyClientMoves  = "movements:client:"
)

// CreateClientInput carries the fields accepted when registering a client.
type CreateClientInput struct {
	Name  string
	Phone string
	Email string
	Notes string
}

// CreateMovementInput carries the fields accepted when recording a movement.
type CreateMovementInput struct {
	ClientID   string
	Type       models.MovementType
	Currency   string
	Amount     float64
	Rate       float64
	OccurredAt time.Time
	Notes      string
}

// MovementFilter narrows ListMovements. Zero fields match everything; From and
// To are inclusive bounds on OccurredAt.
type MovementFilter struct {
	ClientID string
	Type     models.MovementType
	Currency string
	From     time.Time
	To       time.Time
}

func (f MovementFilter) match(m models.Movement) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Currency != "" && !strings.EqualFold(m.Currency, f.Currency) {
		return false
	}
	if !f.From.IsZero() && m.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && m.OccurredAt.After(f.To) {
		return false
	}
	return true
}

// Backoffice serves client and movement lookups, memoizing reads in the shared
// cache and invalidating the affected keys on every write.
//
// Slices returned from the List methods may be shared with the cache and must
// not be modified by callers.
type Backoffice struct {
	store  Store
	cache  *cache.Cache
	events realtime.Publisher
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewBackoffice(store Store, c *cache.Cache, events realtime.Publisher, ttl time.Duration, logger *zap.Logger) *Backoffice {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backoffice{
		store:  store,
		cache:  c,
		events: events,
		ttl:    ttl,
		log:    logger.Named("backoffice"),
		now:    time.Now,
	}
}

func (b *Backoffice) ListClients(ctx context.Context) ([]models.Client, error) {
	return cache.Remember(ctx, b.cache, keyAllClients, b.ttl, b.store.ListClients)
}

func (b *Backoffice) GetClient(ctx context.Context, id string) (models.Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Client{}, fmt.Errorf("%w: client id is required", ErrValidation)
	}
	return cache.Remember(ctx, b.cache, keyClientPrefix+id, b.ttl, func(ctx context.Context) (models.Client, error) {
		return b.store.GetClient(ctx, id)
	})
}

func (b *Backoffice) CreateClient(ctx context.Context, in CreateClientInput) (models.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Client{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	client := models.Client{
		ID:    "cli-" + uuid.NewString(),
		Name:  name,
		Phone: strings.TrimSpace(in.Phone),
		Email: strings.TrimSpace(in.Email),
		Notes: in.Notes,
	}
	if err := b.store.CreateClient(ctx, &client); err != nil {
		return models.Client{}, err
	}

	b.cache.Delete(keyAllClients)
	b.log.Info("client created", zap.String("client_id", client.ID))
	b.publish(realtime.Event{Type: realtime.EventClientCreated, ID: client.ID, ClientID: client.ID})
	return client, nil
}

// ListMovements loads all movements, or one client's movements, through the
// cache and applies the rest of the filter in memory.
func (b *Backoffice) ListMovements(ctx context.Context, f MovementFilter) ([]models.Movement, error) {
	key := keyAllMovements
	if f.ClientID != "" {
		key = keyClientMoves + f.ClientID
	}

	all, err := cache.Remember(ctx, b.cache, key, b.ttl, func(ctx context.Context) ([]models.Movement, error) {
		return b.store.ListMovements(ctx, f.ClientID)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Movement, 0, len(all))
	for _, m := range all {
		if f.match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (b *Backoffice) CreateMovement(ctx context.Context, in CreateMovementInput) (models.Movement, error) {
	if err := validateMovement(&in); err != nil {
		return models.Movement{}, err
	}

	if _, err := b.GetClient(ctx, in.ClientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Movement{}, fmt.Errorf("%w: unknown client %s", ErrValidation, in.ClientID)
		}
		return models.Movement{}, err
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = b.now()
	}

	movement := models.Movement{
		ID:         "mov-" + uuid.NewString(),
		ClientID:   in.ClientID,
		Type:       in.Type,
		Currency:   in.Currency,
		Amount:     in.Amount,
		Rate:       in.Rate,
		OccurredAt: occurredAt.UTC(),
		Notes:      in.Notes,
	}
	if err := b.store.CreateMovement(ctx, &movement); err != nil {
		return models.Movement{}, err
	}

	b.cache.Delete(keyAllMovements)
	b.cache.Delete(keyClientMoves + movement.ClientID)
	b.log.Info("movement created",
		zap.String("movement_id", movement.ID),
		zap.String("client_id", movement.ClientID),
		zap.String("type", string(movement.Type)),
		zap.String("currency", movement.Currency))
	b.publish(realtime.Event{Type: realtime.EventMovementCreated, ID: movement.ID, ClientID: movement.ClientID})
	return movement, nil
}

// validateMovement normalizes in place and rejects unusable payloads.
func validateMovement(in *CreateMovementInput) error {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	var errs []error
	if in.ClientID == "" {
		errs = append(errs, errors.New("clientId is required"))
	}
	if !in.Type.Valid() {
		errs = append(errs, fmt.Errorf("type must be %q or %q", models.MovementPurchase, models.MovementSale))
	}
	if len(in.Currency) != 3 {
		errs = append(errs, errors.New("currency must be a 3-letter code"))
	}
	if in.Amount <= 0 {
		errs = append(errs, errors.New("amount must be positive"))
	}
	if in.Rate <= 0 {
		errs = append(errs, errors.New("rate must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

func (b *Backoffice) publish(evt realtime.Event) {
	if b.events != nil {
		b.events.Publish(evt)
	}
}
