package service

import (
	"context"
	"fmt"

	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/google/uuid"
)

// ProfileStore is the persistence surface for shipping addresses.
type ProfileStore interface {
	GetAddressesByUserID(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error)
	CreateAddress(ctx context.Context, address *models.ShippingAddress) error
}

// ProfileService manages a user's shipping addresses, the source of the
// snapshot copied onto orders at checkout.
type ProfileService struct {
	store ProfileStore
}

// NewProfileService creates a new profile service
func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// ListAddresses retrieves the user's shipping addresses.
func (ps *ProfileService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	ctx, span := util.StartSpan(ctx, "ProfileService.ListAddresses")
	defer span.End()

	addresses, err := ps.store.GetAddressesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// CreateAddress creates a shipping address for the user.
func (ps *ProfileService) CreateAddress(ctx context.Context, address *models.ShippingAddress) error {
	ctx, span := util.StartSpan(ctx, "ProfileService.CreateAddress")
	defer span.End()

	if err := ps.store.CreateAddress(ctx, address); err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}
