package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/m10djcompany/ledgerlink/internal/audit/domain"
	"github.com/m10djcompany/ledgerlink/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Node  *snowflake.Node
	Clock clock.Clock
	Log   *zap.Logger
}

type service struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		node:  p.Node,
		clock: p.Clock,
		log:   p.Log.Named("audit.service"),
	}
}

func (s *service) Record(ctx context.Context, entry domain.Entry) {
	row := domain.AuditLog{
		ID:         s.node.Generate(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		CreatedAt:  s.clock.Now(),
	}

	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.log.Warn("audit metadata not serializable",
				zap.String("action", entry.Action),
				zap.Error(err))
		} else {
			row.Metadata = raw
		}
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}
