package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	obsmetrics "github.com/meddor/scribe/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const storeTimeout = 5 * time.Second

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) creditdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("credit.service"),
		genID:      p.GenID,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) GetBalance(ctx context.Context, email string) (int64, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var balance int64
	err = s.db.WithContext(ctx).
		Model(&creditdomain.Account{}).
		Select("credit_balance").
		Where("email = ?", email).
		Take(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, creditdomain.ErrAccountNotFound
		}
		return 0, storeErr(err)
	}
	return balance, nil
}

// Deduct is a single conditional UPDATE evaluated by the store: it succeeds
// only when the balance still covers the amount at execution time, so two
// concurrent deductions can never both consume the same credit.
func (s *Service) Deduct(ctx context.Context, email string, amount int64) (int64, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, creditdomain.ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	result := s.db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET credit_balance = credit_balance - ?, updated_at = ?
		 WHERE email = ? AND credit_balance >= ?`,
		amount,
		time.Now().UTC(),
		email,
		amount,
	)
	if result.Error != nil {
		return 0, storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing account from an uncovered amount.
		balance, err := s.GetBalance(ctx, email)
		if err != nil {
			return 0, err
		}
		s.log.Info("credit deduction rejected",
			zap.String("email", email),
			zap.Int64("amount", amount),
			zap.Int64("balance", balance),
		)
		return balance, creditdomain.ErrInsufficientCredit
	}

	s.obsMetrics.RecordCreditsDeducted(amount)
	return s.GetBalance(ctx, email)
}

func (s *Service) Grant(ctx context.Context, email string, amount int64) (int64, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, creditdomain.ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	result := s.db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET credit_balance = credit_balance + ?, updated_at = ?
		 WHERE email = ?`,
		amount,
		time.Now().UTC(),
		email,
	)
	if result.Error != nil {
		return 0, storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, creditdomain.ErrAccountNotFound
	}

	s.obsMetrics.RecordCreditsGranted(amount)
	return s.GetBalance(ctx, email)
}

func (s *Service) EnsureAccount(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	now := time.Now().UTC()
	account := creditdomain.Account{
		ID:        s.genID.Generate(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&account).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", creditdomain.ErrInvalidEmail
	}
	return email, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", creditdomain.ErrStoreUnavailable, err)
}
