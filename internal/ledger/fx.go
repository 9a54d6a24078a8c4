package ledger

import (
	"github.com/m10djcompany/ledgerlink/internal/ledger/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.repository",
	fx.Provide(repository.Provide),
)
