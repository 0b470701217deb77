package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
)

// MySQLOrderStore persists orders in MySQL. Multi-row writes (order+items
// on insert, status+receipt on payment) run in one transaction.
type MySQLOrderStore struct{ db *sql.DB }

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore { return &MySQLOrderStore{db: db} }

var _ usecase.OrderStore = (*MySQLOrderStore)(nil)

func (s *MySQLOrderStore) Insert(ctx context.Context, o *entity.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO orders (id,total_amount,total_items,status,paid,created_at,updated_at)
VALUES (?,?,?,?,0,?,?)`,
		o.ID, o.TotalAmount, o.TotalItems, string(o.Status), o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO order_items (order_id,product_id,quantity,price)
VALUES (?,?,?,?)`,
			o.ID, it.ProductID, it.Quantity, it.Price,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (s *MySQLOrderStore) Get(ctx context.Context, id string) (*entity.Order, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id,total_amount,total_items,status,paid,paid_at,stripe_charge_id,created_at,updated_at
FROM orders WHERE id=?`, id)

	var (
		o        entity.Order
		status   string
		paidAt   sql.NullTime
		chargeID sql.NullString
	)
	err := row.Scan(&o.ID, &o.TotalAmount, &o.TotalItems, &status, &o.Paid, &paidAt, &chargeID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundf("order %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = entity.Status(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	o.StripeChargeID = chargeID.String

	rows, err := s.db.QueryContext(ctx, `
SELECT product_id,quantity,price
FROM order_items WHERE order_id=? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	var rec entity.OrderReceipt
	err = s.db.QueryRowContext(ctx, `
SELECT receipt_url,created_at FROM order_receipts WHERE order_id=?`, id).
		Scan(&rec.ReceiptURL, &rec.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no receipt yet
	case err != nil:
		return nil, fmt.Errorf("get order receipt: %w", err)
	default:
		o.Receipt = &rec
	}

	return &o, nil
}

func (s *MySQLOrderStore) Count(ctx context.Context, status *entity.Status) (int64, error) {
	q := `SELECT COUNT(*) FROM orders`
	args := []any{}
	if status != nil {
		q += ` WHERE status=?`
		args = append(args, string(*status))
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (s *MySQLOrderStore) List(ctx context.Context, status *entity.Status, offset, limit int) ([]entity.Order, error) {
	q := `
SELECT id,total_amount,total_items,status,paid,paid_at,stripe_charge_id,created_at,updated_at
FROM orders`
	args := []any{}
	if status != nil {
		q += ` WHERE status=?`
		args = append(args, string(*status))
	}
	// stable page order: creation order, id as tiebreaker
	q += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []entity.Order{}
	for rows.Next() {
		var (
			o        entity.Order
			st       string
			paidAt   sql.NullTime
			chargeID sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.TotalAmount, &o.TotalItems, &st, &o.Paid, &paidAt, &chargeID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = entity.Status(st)
		if paidAt.Valid {
			t := paidAt.Time
			o.PaidAt = &t
		}
		o.StripeChargeID = chargeID.String
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *MySQLOrderStore) UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Order, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=NOW() WHERE id=?`, string(status), id)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if rows == 0 {
		// MySQL also reports 0 when every column already held the written
		// value, so check existence before calling it missing
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id=?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.NotFoundf("order %s not found", id)
		}
		if err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *MySQLOrderStore) RecordPayment(ctx context.Context, id, chargeID, receiptURL string, paidAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// paid=0 guard makes double confirmation lose the race instead of
	// writing a second receipt
	res, err := tx.ExecContext(ctx, `
UPDATE orders SET status=?, paid=1, paid_at=?, stripe_charge_id=?, updated_at=NOW()
WHERE id=? AND paid=0`,
		string(entity.StatusPaid), paidAt, chargeID, id)
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	if rows == 0 {
		var paid bool
		err := tx.QueryRowContext(ctx, `SELECT paid FROM orders WHERE id=?`, id).Scan(&paid)
		if errors.Is(err, sql.ErrNoRows) {
			return entity.NotFoundf("order %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		return entity.Conflictf("order %s is already paid", id)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO order_receipts (order_id,receipt_url,created_at)
VALUES (?,?,?)`, id, receiptURL, paidAt); err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	return tx.Commit()
}
