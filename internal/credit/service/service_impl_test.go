package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	creditservice "github.com/meddor/scribe/internal/credit/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Serialize writers so concurrent deduction tests exercise the
	// conditional update, not sqlite lock contention.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&creditdomain.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newService(t *testing.T, db *gorm.DB) creditdomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return creditservice.NewService(creditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func seedAccount(t *testing.T, svc creditdomain.Service, email string, balance int64) {
	t.Helper()
	ctx := context.Background()
	if err := svc.EnsureAccount(ctx, email); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	if balance > 0 {
		if _, err := svc.Grant(ctx, email, balance); err != nil {
			t.Fatalf("seed grant: %v", err)
		}
	}
}

func TestGetBalanceUnknownAccount(t *testing.T) {
	svc := newService(t, setupTestDB(t))

	_, err := svc.GetBalance(context.Background(), "nobody@example.com")
	if !errors.Is(err, creditdomain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDeductReturnsNewBalance(t *testing.T) {
	svc := newService(t, setupTestDB(t))
	seedAccount(t, svc, "doc@example.com", 5)

	balance, err := svc.Deduct(context.Background(), "doc@example.com", 2)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if balance != 3 {
		t.Fatalf("expected balance 3, got %d", balance)
	}
}

func TestDeductInsufficientCredit(t *testing.T) {
	svc := newService(t, setupTestDB(t))
	seedAccount(t, svc, "doc@example.com", 1)

	_, err := svc.Deduct(context.Background(), "doc@example.com", 2)
	if !errors.Is(err, creditdomain.ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}

	balance, err := svc.GetBalance(context.Background(), "doc@example.com")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 1 {
		t.Fatalf("rejected deduction must not change balance, got %d", balance)
	}
}

func TestDeductMissingAccount(t *testing.T) {
	svc := newService(t, setupTestDB(t))

	_, err := svc.Deduct(context.Background(), "ghost@example.com", 1)
	if !errors.Is(err, creditdomain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestConcurrentDeductionsNeverDoubleSpend(t *testing.T) {
	svc := newService(t, setupTestDB(t))
	seedAccount(t, svc, "doc@example.com", 3)

	const callers = 10
	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		succeeded     int
		insufficient  int
		unexpectedErr error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deduct(context.Background(), "doc@example.com", 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, creditdomain.ErrInsufficientCredit):
				insufficient++
			default:
				unexpectedErr = err
			}
		}()
	}
	wg.Wait()

	if unexpectedErr != nil {
		t.Fatalf("unexpected deduct error: %v", unexpectedErr)
	}
	if succeeded != 3 {
		t.Fatalf("expected exactly 3 successful deductions, got %d", succeeded)
	}
	if insufficient != callers-3 {
		t.Fatalf("expected %d insufficient-credit failures, got %d", callers-3, insufficient)
	}

	balance, err := svc.GetBalance(context.Background(), "doc@example.com")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected final balance 0, got %d", balance)
	}
}

func TestGrantMissingAccount(t *testing.T) {
	svc := newService(t, setupTestDB(t))

	_, err := svc.Grant(context.Background(), "ghost@example.com", 300)
	if !errors.Is(err, creditdomain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGrantAddsToBalance(t *testing.T) {
	svc := newService(t, setupTestDB(t))
	seedAccount(t, svc, "doc@example.com", 2)

	balance, err := svc.Grant(context.Background(), "doc@example.com", 300)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if balance != 302 {
		t.Fatalf("expected balance 302, got %d", balance)
	}
}

func TestEnsureAccountIsIdempotent(t *testing.T) {
	svc := newService(t, setupTestDB(t))
	ctx := context.Background()

	if err := svc.EnsureAccount(ctx, "doc@example.com"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	if _, err := svc.Grant(ctx, "doc@example.com", 10); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := svc.EnsureAccount(ctx, "doc@example.com"); err != nil {
		t.Fatalf("ensure account again: %v", err)
	}

	balance, err := svc.GetBalance(ctx, "doc@example.com")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 10 {
		t.Fatalf("re-ensuring an account must not reset its balance, got %d", balance)
	}
}

func TestInvalidAmounts(t *testing.T) {
	svc := newService(t, setupTestDB(t))
	seedAccount(t, svc, "doc@example.com", 5)

	if _, err := svc.Deduct(context.Background(), "doc@example.com", 0); !errors.Is(err, creditdomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero deduct, got %v", err)
	}
	if _, err := svc.Grant(context.Background(), "doc@example.com", -1); !errors.Is(err, creditdomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative grant, got %v", err)
	}
}
