package audit

import (
	"github.com/m10djcompany/ledgerlink/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(service.New),
)
