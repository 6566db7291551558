package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
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

func NewService(p Params) usagedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("usage.service"),
		genID: p.GenID,
	}
}

func (s *Service) Append(ctx context.Context, req usagedomain.AppendRequest) (*usagedomain.UsageRecord, error) {
	email := strings.ToLower(strings.TrimSpace(req.AccountEmail))
	if email == "" {
		return nil, usagedomain.ErrInvalidAccount
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, usagedomain.ErrInvalidModel
	}
	if req.InputTokens < 0 || req.OutputTokens < 0 {
		return nil, usagedomain.ErrInvalidTokens
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	record := usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		AccountEmail: email,
		InputText:    req.InputText,
		OutputText:   req.OutputText,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		Model:        model,
		Tag:          strings.TrimSpace(req.Tag),
		Metadata:     datatypes.JSONMap(req.Metadata),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) List(ctx context.Context, req usagedomain.ListRequest) (usagedomain.ListResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.AccountEmail))
	if email == "" {
		return usagedomain.ListResponse{}, usagedomain.ErrInvalidAccount
	}
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var records []usagedomain.UsageRecord
	err := s.db.WithContext(ctx).
		Where("account_email = ?", email).
		Order("created_at DESC").
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return usagedomain.ListResponse{}, err
	}
	return usagedomain.ListResponse{UsageRecords: records}, nil
}
