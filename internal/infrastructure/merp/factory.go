package merp

import (
	"fmt"

	"github.com/rms/backend/internal/domain/fulfillment"
	"github.com/rms/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewAdapter returns the adapter selected by cfg.Mode, wrapped so every
// call lands in the integration log
func NewAdapter(cfg config.MERPConfig, logs fulfillment.IntegrationLogRepository, logger *zap.Logger) (fulfillment.Adapter, error) {
	switch cfg.Mode {
	case "", "stub":
		return NewLoggingAdapter(NewStubAdapter(logger), logs, logger), nil
	default:
		return nil, fmt.Errorf("unsupported merp mode %q", cfg.Mode)
	}
}
