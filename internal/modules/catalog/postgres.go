package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgemunganga/product-store/internal/database"
)

const productsTable = "products"

var productColumns = []string{"id", "name", "image", "price", "created_at"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresRepo struct{ db *database.Handle }

func NewPostgresRepository(db *database.Handle) Repository { return &postgresRepo{db: db} }

func scanProduct(scan func(...any) error) (*Product, error) {
	p := &Product{}
	if err := scan(&p.ID, &p.Name, &p.Image, &p.Price, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) queryOne(ctx context.Context, b sq.Sqlizer) (*Product, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building statement: %w", err)
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*Product, error) {
	query, args, err := psql.Select(productColumns...).
		From(productsTable).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building statement: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	return r.queryOne(ctx, psql.Select(productColumns...).
		From(productsTable).
		Where(sq.Eq{"id": id}))
}

func (r *postgresRepo) Create(ctx context.Context, in ProductInput) (*Product, error) {
	return r.queryOne(ctx, psql.Insert(productsTable).
		Columns("name", "image", "price").
		Values(in.Name, in.Image, in.Price.Decimal).
		Suffix("RETURNING id, name, image, price, created_at"))
}

func (r *postgresRepo) Update(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	return r.queryOne(ctx, psql.Update(productsTable).
		Set("name", in.Name).
		Set("image", in.Image).
		Set("price", in.Price.Decimal).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, image, price, created_at"))
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) (*Product, error) {
	return r.queryOne(ctx, psql.Delete(productsTable).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, image, price, created_at"))
}
