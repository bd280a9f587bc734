package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is an item in the store catalog.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     Price     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Price is a non-negative amount with two fractional digits, stored as DECIMAL(10,2).
// It marshals as a fixed two-digit string and accepts a JSON number or numeric string.
type Price struct{ decimal.Decimal }

func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	return Price{d}, nil
}

func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Price) String() string { return p.StringFixed(2) }

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.StringFixed(2) + `"`), nil
}

// ProductInput is the full-field payload for create and update.
type ProductInput struct {
	Name  string `json:"name"  validate:"required,max=255"`
	Image string `json:"image" validate:"required,max=255"`
	Price *Price `json:"price" validate:"required"`
}

func (in ProductInput) normalized() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Image = strings.TrimSpace(in.Image)
	return in
}
