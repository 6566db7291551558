package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	promptdomain "github.com/meddor/scribe/internal/prompt/domain"
	promptservice "github.com/meddor/scribe/internal/prompt/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) promptdomain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&promptdomain.PromptTemplate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return promptservice.NewService(promptservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func TestResolveFallsBackToDefault(t *testing.T) {
	svc := newService(t)

	body, err := svc.Resolve(context.Background(), "new@example.com")
	assert.NoError(t, err)
	assert.Equal(t, promptdomain.DefaultTemplate, body)
}

func TestEnsureDefaultDoesNotOverwriteCustomPrompt(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	assert.NoError(t, svc.EnsureDefault(ctx, "doc@example.com"))
	assert.NoError(t, svc.Update(ctx, "doc@example.com", "Summarize in two lines."))
	assert.NoError(t, svc.EnsureDefault(ctx, "doc@example.com"))

	body, err := svc.Resolve(ctx, "doc@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "Summarize in two lines.", body)
}

func TestUpdateCreatesTemplateWhenMissing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Update(ctx, "doc@example.com", "Point form only."))

	body, err := svc.Resolve(ctx, "doc@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "Point form only.", body)
}

func TestUpdateRejectsEmptyBody(t *testing.T) {
	svc := newService(t)

	err := svc.Update(context.Background(), "doc@example.com", "   ")
	assert.ErrorIs(t, err, promptdomain.ErrInvalidBody)
}
