package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	promptdomain "github.com/meddor/scribe/internal/prompt/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const storeTimeout = 5 * time.Second

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) promptdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("prompt.service"),
		genID: p.GenID,
	}
}

func (s *Service) EnsureDefault(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	now := time.Now().UTC()
	template := promptdomain.PromptTemplate{
		ID:        s.genID.Generate(),
		Email:     email,
		Body:      promptdomain.DefaultTemplate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&template).Error
}

func (s *Service) Resolve(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var body string
	err = s.db.WithContext(ctx).
		Model(&promptdomain.PromptTemplate{}).
		Select("body").
		Where("email = ?", email).
		Take(&body).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return promptdomain.DefaultTemplate, nil
		}
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return promptdomain.DefaultTemplate, nil
	}
	return body, nil
}

func (s *Service) Update(ctx context.Context, email, body string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return promptdomain.ErrInvalidBody
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	now := time.Now().UTC()
	template := promptdomain.PromptTemplate{
		ID:        s.genID.Generate(),
		Email:     email,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"body":       body,
				"updated_at": now,
			}),
		}).
		Create(&template).Error
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", promptdomain.ErrInvalidEmail
	}
	return email, nil
}
