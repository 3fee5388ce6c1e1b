package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	d "github.com/fjod/foodcart/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgForeignKeyViolation = "23503"

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials, logger *zap.Logger) (*Repository, error) {
	sslMode := cred.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName,
		sslMode)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	if logger != nil {
		logger.Info("connected to postgres", zap.String("host", cred.Host), zap.String("db", cred.DBName))
	}
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "foodcart_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) GetProfile(ctx context.Context, userID string) (*d.Profile, error) {
	query := `SELECT id, full_name, email, phone, address, "group" FROM profiles WHERE id = $1`

	var (
		p                               d.Profile
		fullName, email, phone, address sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &fullName, &email, &phone, &address, &p.Group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	p.FullName = fullName.String
	p.Email = email.String
	p.Phone = phone.String
	p.Address = address.String
	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]d.Product, error) {
	query := `SELECT id, name, price, image, info FROM products ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []d.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*d.Product, error) {
	query := `SELECT id, name, price, image, info FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) InsertOrder(ctx context.Context, order d.NewOrder) (*d.Order, error) {
	query := `INSERT INTO orders (total, user_id) VALUES ($1, $2)
	          RETURNING id, created_at, total, user_id, status`

	created, err := scanOrder(r.db.QueryRowContext(ctx, query, order.Total, order.UserID))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &created, nil
}

// InsertOrderItems writes all items in one statement, so either every row lands or none does.
func (r *Repository) InsertOrderItems(ctx context.Context, items []d.NewOrderItem) ([]d.OrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO order_items (order_id, product_id, quantity) VALUES `)
	args := make([]any, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 3
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", n+1, n+2, n+3)
		args = append(args, it.OrderID, it.ProductID, it.Quantity)
	}
	sb.WriteString(` RETURNING id, order_id, product_id, quantity, created_at`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			if strings.Contains(pqErr.Constraint, "product") {
				return nil, ErrProductNotFound
			}
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("insert order items: %w", err)
	}
	defer rows.Close()

	created := make([]d.OrderItem, 0, len(items))
	for rows.Next() {
		var it d.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		created = append(created, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return created, nil
}

// GetOrder returns the order with its items and their products.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*d.Order, error) {
	query := `SELECT id, created_at, total, user_id, status FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	itemsQuery := `SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.created_at,
	                      p.id, p.name, p.price, p.image, p.info
	               FROM order_items oi
	               JOIN products p ON p.id = oi.product_id
	               WHERE oi.order_id = $1
	               ORDER BY oi.id`

	rows, err := r.db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it          d.OrderItem
			p           d.Product
			image, info sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.CreatedAt,
			&p.ID, &p.Name, &p.Price, &image, &info); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		p.Image = nullableString(image)
		p.Info = nullableString(info)
		it.Product = &p
		order.Items = append(order.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return &order, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID string) ([]d.Order, error) {
	query := `SELECT id, created_at, total, user_id, status
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	return r.listOrders(ctx, query, userID)
}

func (r *Repository) ListOrdersByStatus(ctx context.Context, statuses []d.OrderStatus) ([]d.Order, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `SELECT id, created_at, total, user_id, status
	          FROM orders WHERE status = ANY($1) ORDER BY created_at DESC, id DESC`

	return r.listOrders(ctx, query, pq.Array(names))
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, status d.OrderStatus) (*d.Order, error) {
	query := `UPDATE orders SET status = $2 WHERE id = $1
	          RETURNING id, created_at, total, user_id, status`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &order, nil
}

func (r *Repository) listOrders(ctx context.Context, query string, args ...any) ([]d.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []d.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (d.Order, error) {
	var (
		o      d.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.Total, &o.UserID, &status); err != nil {
		return d.Order{}, err
	}
	o.Status = d.OrderStatus(status)
	return o, nil
}

func scanProduct(row rowScanner) (d.Product, error) {
	var (
		p           d.Product
		image, info sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &image, &info); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d.Product{}, err
		}
		return d.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}
	p.Image = nullableString(image)
	p.Info = nullableString(info)
	return p, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
