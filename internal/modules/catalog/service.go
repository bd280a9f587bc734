package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/product-store/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when no product has the requested id.
var ErrProductNotFound = apperr.NotFound("Product not found")

// maxPrice is the first value DECIMAL(10,2) cannot hold.
var maxPrice = decimal.New(1, 8)

// Any price whose exponent or coefficient exceeds these is invalid for DECIMAL(10,2).
const (
	maxScale  = 10
	maxDigits = 20
)

// Service defines catalog business logic.
type Service interface {
	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) (*Product, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) Service {
	return &service{repo: repo, validate: validator.New()}
}

func (s *service) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx)
}

func (s *service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	in = in.normalized()
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	in = in.normalized()
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *service) DeleteProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Delete(ctx, id)
}

// validateInput checks a create/update payload. Failures are apperr validation errors.
func (s *service) validateInput(in ProductInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation(fieldMessage(verrs[0]))
		}
		return apperr.Validation(err.Error())
	}

	price := in.Price.Decimal
	// Bound the shape first; the comparisons below rescale to the exponent.
	switch {
	case price.Exponent() < -maxScale:
		return apperr.Validation("price must have at most 2 decimal places")
	case !price.IsZero() && (price.Exponent() > maxScale || price.NumDigits() > maxDigits):
		return apperr.Validation("price must be less than 100000000")
	}

	switch {
	case price.IsNegative():
		return apperr.Validation("price must not be negative")
	case !price.Equal(price.Truncate(2)):
		return apperr.Validation("price must have at most 2 decimal places")
	case price.GreaterThanOrEqual(maxPrice):
		return apperr.Validation("price must be less than 100000000")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
