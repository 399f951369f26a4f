// Package logging provides the thin, narrow-interface wrapper around
// go.uber.org/zap this corpus favours over passing a concrete *zap.Logger
// around (mirroring luxfi-consensus/log's wrapper over its own logger
// interface), specialised to two structured fields: ceremony_id and
// party_index (spec.md §6 NEW), matching the Rust engine's CEREMONY_ID_KEY
// slog convention. The Manager's own log lines (blame and outcomes) carry
// ceremony_id only; no stage transition is logged.
package logging

import (
	"go.uber.org/zap"

	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// Logger is the narrow surface the ceremony packages log through.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	l *zap.Logger
}

// New wraps an existing *zap.Logger.
func New(l *zap.Logger) Logger {
	return zapLogger{l: l}
}

// NoOp returns a Logger that discards everything, for tests and callers
// that don't care to configure one.
func NoOp() Logger {
	return zapLogger{l: zap.NewNop()}
}

func (z zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }

func (z zapLogger) With(fields ...zap.Field) Logger {
	return zapLogger{l: z.l.With(fields...)}
}

// WithCeremony attaches the ceremony_id field, the one structured field
// present on every log line for the lifetime of a runner.
func WithCeremony(l Logger, id ceremony.CeremonyID) Logger {
	return l.With(zap.Uint64("ceremony_id", uint64(id)))
}

// WithParty additionally attaches party_index, once a runner has built its
// PartyIndexer and knows which local index it's logging about.
func WithParty(l Logger, idx ceremony.PartyIndex) Logger {
	return l.With(zap.Int("party_index", int(idx)))
}

// Stage logs a successful stage transition.
func Stage(l Logger, stage string) {
	l.Info("ceremony stage advanced", zap.String("stage", stage))
}

// Blame logs a protocol-level fault with its offending parties.
func Blame(l Logger, reason string, parties []ceremony.AccountID) {
	ids := make([]string, len(parties))
	for i, p := range parties {
		ids[i] = p.String()
	}
	l.Warn("ceremony blamed parties", zap.String("reason", reason), zap.Strings("parties", ids))
}

// Outcome logs a terminal outcome.
func Outcome(l Logger, ok bool, reason string) {
	if ok {
		l.Info("ceremony succeeded")
		return
	}
	l.Warn("ceremony aborted", zap.String("reason", reason))
}
