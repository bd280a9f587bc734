package catalog

import "context"

// Repository defines the interface for product data storage. Every method issues
// exactly one statement; missing rows are reported as ErrProductNotFound.
type Repository interface {
	List(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, id int64, in ProductInput) (*Product, error)
	Delete(ctx context.Context, id int64) (*Product, error)
}
