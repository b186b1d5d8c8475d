package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

// NoticeLogger is a notice.Sink that writes each notice to a zap logger.
// Misconfiguration notices are logged at warn, everything else at info.
type NoticeLogger struct {
	logger *zap.Logger
}

var _ notice.Sink = (*NoticeLogger)(nil)

// NewNoticeLogger returns a sink writing to logger.
//
// Precondition: logger must be non-nil.
func NewNoticeLogger(logger *zap.Logger) *NoticeLogger {
	if logger == nil {
		panic("observability.NewNoticeLogger: logger must not be nil")
	}
	return &NoticeLogger{logger: logger.Named("notice")}
}

// Notify logs n with its kind and params.
func (s *NoticeLogger) Notify(_ context.Context, n notice.Notice) {
	fields := make([]zap.Field, 0, len(n.Params)+1)
	fields = append(fields, zap.String("kind", string(n.Kind)))
	for _, k := range n.Keys() {
		fields = append(fields, zap.String(k, n.Params[k]))
	}
	if n.Kind.Misconfiguration() {
		s.logger.Warn("notice", fields...)
		return
	}
	s.logger.Info("notice", fields...)
}

// Fanout delivers every notice to each sink in order.
type Fanout []notice.Sink

// Notify implements notice.Sink.
func (f Fanout) Notify(ctx context.Context, n notice.Notice) {
	for _, s := range f {
		s.Notify(ctx, n)
	}
}
