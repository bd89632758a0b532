package buyers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
)

// Service exposes buyer profile reads used across order and payment flows.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error)
}

type service struct {
	repo Repository
}

// NewService wires a buyer service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("buyers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	buyer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading buyer")
	}
	if !buyer.Active {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "buyer is inactive")
	}
	return buyer, nil
}
