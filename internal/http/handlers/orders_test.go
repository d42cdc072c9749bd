package handlers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	if !isUniqueViolation(unique) {
		t.Fatal("expected unique violation to match")
	}
	if !isUniqueViolation(fmt.Errorf("insert order: %w", unique)) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if isUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}) {
		t.Fatal("foreign key violation must not match")
	}
	if isUniqueViolation(fmt.Errorf("plain error")) {
		t.Fatal("plain error must not match")
	}
}

// collidingTx fails the first order inserts with a duplicate order_number,
// the way two checkouts drawing the same random tail would.
type collidingTx struct {
	pgx.Tx
	collisions int
	inserts    int
	savepoints []string
}

func (t *collidingTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.savepoints = append(t.savepoints, strings.TrimSpace(sql))
	return pgconn.CommandTag{}, nil
}

func (t *collidingTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	t.inserts++
	if t.inserts <= t.collisions {
		return errRow{&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "orders_order_number_key"}}
	}
	return idRow{}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type idRow struct{}

func (r idRow) Scan(dest ...any) error {
	if id, ok := dest[0].(*int64); ok {
		*id = 7
	}
	return nil
}

func TestInsertOrderRowRetriesOnCollision(t *testing.T) {
	now := time.Now()
	tx := &collidingTx{collisions: 2}
	order := Order{OrderNumber: "ORD-fixed-seed", Status: "pending", PickupName: "Kim"}
	first := order.OrderNumber

	if err := insertOrderRow(context.Background(), tx, &order, "sess-1", nil, now); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if order.ID != 7 {
		t.Fatalf("order id = %d, want 7", order.ID)
	}
	if tx.inserts != 3 {
		t.Fatalf("inserts = %d, want 3", tx.inserts)
	}
	if order.OrderNumber == first {
		t.Fatal("expected a fresh order number after collisions")
	}

	var rollbacks int
	for _, sql := range tx.savepoints {
		if strings.HasPrefix(sql, "rollback to savepoint") {
			rollbacks++
		}
	}
	if rollbacks != 2 {
		t.Fatalf("rollbacks = %d, want 2", rollbacks)
	}
}

func TestInsertOrderRowGivesUpOnOtherErrors(t *testing.T) {
	tx := &failingTx{}
	order := Order{OrderNumber: "ORD-20260829-0002"}
	if err := insertOrderRow(context.Background(), tx, &order, "sess-1", nil, time.Now()); err == nil {
		t.Fatal("expected error to surface")
	}
	if tx.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", tx.inserts)
	}
}

type failingTx struct {
	pgx.Tx
	inserts int
}

func (t *failingTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *failingTx) QueryRow(context.Context, string, ...any) pgx.Row {
	t.inserts++
	return errRow{fmt.Errorf("connection reset")}
}
