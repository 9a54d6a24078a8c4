package reconcile

import (
	"github.com/m10djcompany/ledgerlink/internal/reconcile/resolver"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/service"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/writer"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile",
	fx.Provide(
		resolver.New,
		writer.New,
		service.New,
	),
)
