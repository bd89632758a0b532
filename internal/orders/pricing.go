package orders

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
)

// pricedLine is the result of pricing one cart line.
type pricedLine struct {
	LineTotalCents         int64
	EstimatedTotalWeightKg *float64
}

// linePricer computes a line total. Each pricing mode is its own type so a
// line can only carry the fields its mode actually uses.
type linePricer interface {
	Price() (pricedLine, error)
}

// perUnitLine prices a fixed-price item.
type perUnitLine struct {
	UnitPriceCents int64
	Quantity       float64
}

func (l perUnitLine) Price() (pricedLine, error) {
	if l.Quantity <= 0 {
		return pricedLine{}, pkgerrors.New(pkgerrors.CodeBusinessRule, "quantity must be positive")
	}
	if l.UnitPriceCents <= 0 {
		return pricedLine{}, pkgerrors.New(pkgerrors.CodeStateConflict, "product has no valid price")
	}
	total := decimal.NewFromInt(l.UnitPriceCents).
		Mul(decimal.NewFromFloat(l.Quantity)).
		Round(0).
		IntPart()
	return pricedLine{LineTotalCents: total}, nil
}

// perKgBoxLine prices a variable-weight item sold by the box and charged by
// estimated weight.
type perKgBoxLine struct {
	UnitPriceCentsPerKg  int64
	Boxes                float64
	EstimatedBoxWeightKg float64
}

func (l perKgBoxLine) Price() (pricedLine, error) {
	if l.Boxes <= 0 || l.Boxes != math.Trunc(l.Boxes) {
		return pricedLine{}, pkgerrors.New(pkgerrors.CodeBusinessRule, "box quantity must be a positive whole number")
	}
	if l.EstimatedBoxWeightKg <= 0 {
		return pricedLine{}, pkgerrors.New(pkgerrors.CodeBusinessRule, "product is missing its estimated box weight")
	}
	if l.UnitPriceCentsPerKg <= 0 {
		return pricedLine{}, pkgerrors.New(pkgerrors.CodeStateConflict, "product has no valid price")
	}

	weight := decimal.NewFromFloat(l.EstimatedBoxWeightKg).Mul(decimal.NewFromFloat(l.Boxes))
	total := decimal.NewFromInt(l.UnitPriceCentsPerKg).
		Mul(weight).
		Round(0).
		IntPart()

	estimated, _ := weight.Float64()
	return pricedLine{LineTotalCents: total, EstimatedTotalWeightKg: &estimated}, nil
}

// newLinePricer builds the pricer matching the product's pricing mode.
func newLinePricer(mode enums.PricingMode, unitPriceCents int64, quantity float64, estimatedBoxWeightKg *float64) (linePricer, error) {
	switch mode {
	case enums.PricingModePerUnit:
		return perUnitLine{UnitPriceCents: unitPriceCents, Quantity: quantity}, nil
	case enums.PricingModePerKgBox:
		weight := 0.0
		if estimatedBoxWeightKg != nil {
			weight = *estimatedBoxWeightKg
		}
		return perKgBoxLine{UnitPriceCentsPerKg: unitPriceCents, Boxes: quantity, EstimatedBoxWeightKg: weight}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unknown pricing mode %q", mode))
	}
}
