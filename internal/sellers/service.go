package sellers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
)

// Service defines seller-level operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	OnboardingLink(ctx context.Context, input OnboardingLinkInput) (*OnboardingLinkOutput, error)
	SyncAccountStatus(ctx context.Context, account *stripe.Account) error
}

// OnboardingLinkInput carries the data needed to start Stripe onboarding.
type OnboardingLinkInput struct {
	SellerID   uuid.UUID
	RefreshURL string
	ReturnURL  string
}

// OnboardingLinkOutput returns the hosted onboarding URL.
type OnboardingLinkOutput struct {
	URL string `json:"url"`
}

type service struct {
	repo   Repository
	stripe StripeAccountClient
}

// NewService wires a seller service with the provided dependencies.
func NewService(repo Repository, stripeClient StripeAccountClient) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe account client required")
	}
	return &service{repo: repo, stripe: stripeClient}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	seller, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading seller")
	}
	return seller, nil
}

// OnboardingLink creates the connected account on first use and returns a
// hosted onboarding link for it.
func (s *service) OnboardingLink(ctx context.Context, input OnboardingLinkInput) (*OnboardingLinkOutput, error) {
	if input.RefreshURL == "" || input.ReturnURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refresh and return urls required")
	}

	seller, err := s.Get(ctx, input.SellerID)
	if err != nil {
		return nil, err
	}

	accountID := ""
	if seller.StripeAccountID != nil {
		accountID = *seller.StripeAccountID
	}
	if accountID == "" {
		params := &stripe.AccountParams{
			Type:  stripe.String(string(stripe.AccountTypeExpress)),
			Email: stripe.String(seller.OrderEmail),
		}
		params.AddMetadata("seller_id", seller.ID.String())
		created, err := s.stripe.CreateAccount(ctx, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating stripe account")
		}
		accountID = created.ID
		if err := s.repo.Update(ctx, seller.ID, map[string]any{"stripe_account_id": accountID}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing stripe account id")
		}
	}

	link, err := s.stripe.CreateAccountLink(ctx, &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(input.RefreshURL),
		ReturnURL:  stripe.String(input.ReturnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating onboarding link")
	}
	return &OnboardingLinkOutput{URL: link.URL}, nil
}

// SyncAccountStatus mirrors a connected account's capability flags onto the
// seller row. Unknown accounts are ignored.
func (s *service) SyncAccountStatus(ctx context.Context, account *stripe.Account) error {
	if account == nil || account.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe account payload required")
	}

	seller, err := s.repo.FindByStripeAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading seller by stripe account")
	}

	return s.repo.Update(ctx, seller.ID, map[string]any{
		"stripe_charges_enabled": account.ChargesEnabled,
		"stripe_payouts_enabled": account.PayoutsEnabled,
	})
}
