package app

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx/fxevent"
)

// fxLogger routes fx lifecycle events to zerolog. Routine provide/invoke
// events are logged at debug level.
type fxLogger struct {
	logger zerolog.Logger
}

// NewFxLogger is passed to fx.WithLogger by the entry points.
func NewFxLogger(logger *zerolog.Logger) fxevent.Logger {
	return &fxLogger{logger: logger.With().Str("component", "fx").Logger()}
}

// LogEvent implements fxevent.Logger.
func (l *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("constructor", e.ConstructorName).Msg("provide failed")
			return
		}
		l.logger.Debug().Str("constructor", e.ConstructorName).Strs("types", e.OutputTypeNames).Msg("provided")
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("function", e.FunctionName).Msg("invoke failed")
			return
		}
		l.logger.Debug().Str("function", e.FunctionName).Msg("invoked")
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("caller", e.CallerName).Msg("start hook failed")
			return
		}
		l.logger.Debug().Str("caller", e.CallerName).Dur("runtime", e.Runtime).Msg("start hook executed")
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("caller", e.CallerName).Msg("stop hook failed")
			return
		}
		l.logger.Debug().Str("caller", e.CallerName).Dur("runtime", e.Runtime).Msg("stop hook executed")
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("application failed to start")
			return
		}
		l.logger.Info().Msg("application started")
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("application stopped with error")
			return
		}
		l.logger.Info().Msg("application stopped")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("custom logger initialization failed")
		}
	}
}
