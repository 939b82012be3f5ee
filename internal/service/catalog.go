package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/sweet_shop/internal/logging"
	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

func (s *CatalogService) ListSweets(ctx context.Context, skip, limit int) ([]models.Sweet, error) {
	return s.Repo.ListSweets(ctx, skip, limit)
}

func (s *CatalogService) SearchSweets(ctx context.Context, f repo.SweetFilter, skip, limit int) ([]models.Sweet, error) {
	return s.Repo.SearchSweets(ctx, f, skip, limit)
}

func (s *CatalogService) CreateSweet(ctx context.Context, req transport.CreateSweetRequest) (*models.Sweet, error) {
	sweet := models.Sweet{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: uint(req.Quantity),
	}

	if err := s.Repo.CreateSweet(ctx, &sweet); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, "sweet_events", fmt.Sprint(sweet.ID), map[string]any{
		"type":    "sweet_created",
		"sweetID": sweet.ID,
		"name":    sweet.Name,
	})

	logging.FromContext(ctx).Info("create_sweet_success", "sweet_id", sweet.ID)
	return &sweet, nil
}

func (s *CatalogService) PatchSweet(ctx context.Context, id uint, req transport.UpdateSweetRequest) (*models.Sweet, error) {
	sweet, err := s.Repo.PatchSweet(ctx, id, req)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, "sweet_events", fmt.Sprint(sweet.ID), map[string]any{
		"type":    "sweet_updated",
		"sweetID": sweet.ID,
		"name":    sweet.Name,
	})

	return sweet, nil
}

func (s *CatalogService) DeleteSweet(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteSweet(ctx, id); err != nil {
		return err
	}

	publish(ctx, s.Events, "sweet_events", fmt.Sprint(id), map[string]any{
		"type":    "sweet_deleted",
		"sweetID": id,
	})

	return nil
}

// PurchaseSweet decrements stock for any authenticated user. Not-found and
// sold-out are both repo.ErrUnavailable.
func (s *CatalogService) PurchaseSweet(ctx context.Context, id uint, username string) (*models.Sweet, error) {
	sweet, err := s.Repo.PurchaseSweet(ctx, id)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, "sweet_events", fmt.Sprint(id), map[string]any{
		"type":     "sweet_purchased",
		"sweetID":  id,
		"username": username,
		"left":     sweet.Quantity,
	})

	return sweet, nil
}

// RestockSweet validates the amount before touching the store, so a bad
// amount against a missing sweet still reports the validation error.
func (s *CatalogService) RestockSweet(ctx context.Context, id uint, amount int) (*models.Sweet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: restock amount must be positive", ErrValidation)
	}

	sweet, err := s.Repo.RestockSweet(ctx, id, amount)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, "sweet_events", fmt.Sprint(id), map[string]any{
		"type":    "sweet_restocked",
		"sweetID": id,
		"amount":  amount,
		"total":   sweet.Quantity,
	})

	return sweet, nil
}
