package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/m10djcompany/ledgerlink/internal/audit"
	"github.com/m10djcompany/ledgerlink/internal/clock"
	"github.com/m10djcompany/ledgerlink/internal/config"
	"github.com/m10djcompany/ledgerlink/internal/ledger"
	"github.com/m10djcompany/ledgerlink/internal/logger"
	"github.com/m10djcompany/ledgerlink/internal/migration"
	"github.com/m10djcompany/ledgerlink/internal/observability/metrics"
	"github.com/m10djcompany/ledgerlink/internal/providers/stripe"
	"github.com/m10djcompany/ledgerlink/internal/reconcile"
	"github.com/m10djcompany/ledgerlink/internal/server"
	"github.com/m10djcompany/ledgerlink/pkg/db"
	"go.uber.org/fx"
)

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

func main() {
	fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		metrics.Module,
		ledger.Module,
		stripe.Module,
		audit.Module,
		reconcile.Module,
		server.Module,
	).Run()
}
