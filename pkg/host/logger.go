package host

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/blueprintapi/blueprint/pkg/contracts"
)

// ZerologErrorLogger is Blueprint's default contracts.ErrorLogger,
// grounded on the teacher's pervasive log.Error().Err(err)...Msg(...)
// calls.
type ZerologErrorLogger struct{}

// NewZerologErrorLogger returns Blueprint's default ErrorLogger.
func NewZerologErrorLogger() ZerologErrorLogger { return ZerologErrorLogger{} }

// LogError implements contracts.ErrorLogger.
func (ZerologErrorLogger) LogError(ctx context.Context, err error, metadata map[string]any) {
	event := log.Error().Err(err)
	for k, v := range metadata {
		event = event.Interface(k, v)
	}
	event.Msg("blueprint: operation error")
}

var _ contracts.ErrorLogger = ZerologErrorLogger{}
