package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
	"github.com/meddor/scribe/internal/usage/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestService(t *testing.T) usagedomain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&usagedomain.UsageRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func TestAppendAndList(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	record, err := svc.Append(ctx, usagedomain.AppendRequest{
		AccountEmail: "Doc@Example.com",
		InputText:    "raw note",
		OutputText:   "summary",
		InputTokens:  120,
		OutputTokens: 40,
		Model:        "gpt-4o",
		Tag:          "summary",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if record.AccountEmail != "doc@example.com" {
		t.Fatalf("email must be normalized, got %q", record.AccountEmail)
	}

	resp, err := svc.List(ctx, usagedomain.ListRequest{AccountEmail: "doc@example.com"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.UsageRecords) != 1 {
		t.Fatalf("expected 1 record, got %d", len(resp.UsageRecords))
	}
	got := resp.UsageRecords[0]
	if got.Model != "gpt-4o" || got.InputTokens != 120 || got.OutputTokens != 40 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestListIsScopedToAccount(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "a@example.com", "b@example.com"} {
		if _, err := svc.Append(ctx, usagedomain.AppendRequest{
			AccountEmail: email,
			InputText:    "note",
			OutputText:   "summary",
			Model:        "gpt-4o",
		}); err != nil {
			t.Fatalf("append for %s: %v", email, err)
		}
	}

	resp, err := svc.List(ctx, usagedomain.ListRequest{AccountEmail: "a@example.com"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.UsageRecords) != 2 {
		t.Fatalf("expected 2 records for a@example.com, got %d", len(resp.UsageRecords))
	}
}

func TestListPageSizeBounds(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Append(ctx, usagedomain.AppendRequest{
			AccountEmail: "doc@example.com",
			InputText:    "note",
			OutputText:   "summary",
			Model:        "gpt-4o",
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	resp, err := svc.List(ctx, usagedomain.ListRequest{AccountEmail: "doc@example.com", PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.UsageRecords) != 2 {
		t.Fatalf("expected page of 2, got %d", len(resp.UsageRecords))
	}
}

func TestAppendRejectsInvalidInput(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, usagedomain.AppendRequest{Model: "gpt-4o"})
	if !errors.Is(err, usagedomain.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}

	_, err = svc.Append(ctx, usagedomain.AppendRequest{AccountEmail: "doc@example.com"})
	if !errors.Is(err, usagedomain.ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}

	_, err = svc.Append(ctx, usagedomain.AppendRequest{
		AccountEmail: "doc@example.com",
		Model:        "gpt-4o",
		InputTokens:  -1,
	})
	if !errors.Is(err, usagedomain.ErrInvalidTokens) {
		t.Fatalf("expected ErrInvalidTokens, got %v", err)
	}
}
