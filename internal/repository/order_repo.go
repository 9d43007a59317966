package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-service/internal/model"
)

const orderColumns = `id::text, user_id::text, items, currency, total_amount, shipping_address,
	status, payment_reference, COALESCE(payment_id, ''), COALESCE(cancel_reason, ''),
	created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, o model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO orders (id, user_id, items, currency, total_amount, shipping_address,
		                     status, payment_reference, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.UserID, items, o.Currency, o.TotalAmount, address,
		string(o.Status), o.PaymentReference, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (model.Order, error) {
	if !isUUID(id) {
		return model.Order{}, model.ErrOrderNotFound
	}

	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order by id: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, q model.ListOrdersQuery) (model.OrderPage, error) {
	return r.list(ctx, `WHERE user_id = $1`, []any{userID}, q)
}

func (r *OrderRepository) ListAll(ctx context.Context, q model.ListOrdersQuery) (model.OrderPage, error) {
	return r.list(ctx, ``, nil, q)
}

func (r *OrderRepository) list(ctx context.Context, where string, args []any, q model.ListOrdersQuery) (model.OrderPage, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return model.OrderPage{}, fmt.Errorf("count orders: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		orderColumns, where, n+1, n+2)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return model.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0, q.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return model.OrderPage{}, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return model.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}

	return model.OrderPage{Orders: orders, Total: total}, nil
}

// UpdateState persists status, payment id and cancel reason, but only while
// the stored status still equals from. A concurrent transition surfaces as
// model.ErrInvalidTransition.
func (r *OrderRepository) UpdateState(ctx context.Context, o model.Order, from model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET status = $2, payment_id = NULLIF($3, ''), cancel_reason = NULLIF($4, ''), updated_at = $5
		 WHERE id = $1 AND status = $6`,
		o.ID, string(o.Status), o.PaymentID, o.CancelReason, o.UpdatedAt, string(from))
	if err != nil {
		return fmt.Errorf("update order state: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.FindByID(ctx, o.ID); err != nil {
		return err
	}
	return model.ErrInvalidTransition
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o       model.Order
		items   []byte
		address []byte
		status  string
	)
	err := row.Scan(&o.ID, &o.UserID, &items, &o.Currency, &o.TotalAmount, &address,
		&status, &o.PaymentReference, &o.PaymentID, &o.CancelReason, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Order{}, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return model.Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return model.Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	o.Status = model.OrderStatus(status)
	return o, nil
}

func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}
