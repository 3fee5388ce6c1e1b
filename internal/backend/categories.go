package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	d "github.com/fjod/foodcart/domain"
	"github.com/shopspring/decimal"
)

func (r *Repository) ListCategories(ctx context.Context) ([]d.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, image FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []d.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// GetCategoryMenu returns the category with every product type it holds, each listing its
// products. Types without products are kept as empty sections.
func (r *Repository) GetCategoryMenu(ctx context.Context, categoryID int64) (*d.CategoryMenu, error) {
	category, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT id, name, image FROM categories WHERE id = $1`, categoryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	query := `
		SELECT t.id, t.name, p.id, p.name, p.price, p.image, p.info
		FROM product_types t
		LEFT JOIN products p ON p.type_id = t.id
		WHERE t.category_id = $1
		ORDER BY t.id, p.id`

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query menu of category %d: %w", categoryID, err)
	}
	defer rows.Close()

	menu := &d.CategoryMenu{Category: category, Sections: []d.MenuSection{}}
	for rows.Next() {
		var (
			typeID      int64
			typeName    string
			productID   sql.NullInt64
			name        sql.NullString
			price       decimal.NullDecimal
			image, info sql.NullString
		)
		if err := rows.Scan(&typeID, &typeName, &productID, &name, &price, &image, &info); err != nil {
			return nil, fmt.Errorf("scan menu row: %w", err)
		}

		n := len(menu.Sections)
		if n == 0 || menu.Sections[n-1].ID != typeID {
			menu.Sections = append(menu.Sections, d.MenuSection{ID: typeID, Name: typeName, Products: []d.Product{}})
			n++
		}
		if !productID.Valid {
			continue
		}
		section := &menu.Sections[n-1]
		section.Products = append(section.Products, d.Product{
			ID:    productID.Int64,
			Name:  name.String,
			Price: price.Decimal,
			Image: nullableString(image),
			Info:  nullableString(info),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu rows: %w", err)
	}
	return menu, nil
}

func scanCategory(row rowScanner) (d.Category, error) {
	var (
		c     d.Category
		image sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d.Category{}, err
		}
		return d.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.Image = nullableString(image)
	return c, nil
}
