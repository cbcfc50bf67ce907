package watch

import (
	"go.uber.org/zap"

	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
)

// logObserver writes engine events as structured log entries.
type logObserver struct {
	log *zap.Logger
}

func newLogObserver(log *zap.Logger) *logObserver {
	return &logObserver{log: log}
}

func (o *logObserver) StateChanged(s channel.State) {
	o.log.Info("channel state", zap.Stringer("state", s))
}

func (o *logObserver) Pulse() {
	o.log.Info("sale received")
}

func (o *logObserver) SnapshotUpdated(s snapshot.Snapshot) {
	fields := []zap.Field{
		zap.Float64("sales_today", s.SalesToday),
		zap.Int("low_stock", s.LowStockCount),
		zap.Float64("average_ticket", s.AverageTicket),
		zap.Time("fetched_at", s.FetchedAt),
	}
	if s.HasAlert() {
		fields = append(fields, zap.String("ai_alert", s.AIAlert))
	}
	o.log.Info("snapshot", fields...)
}

func (o *logObserver) RefreshFailed(err error) {
	o.log.Warn("snapshot refresh failed",
		zap.String("code", errors.CodeOf(err)),
		zap.String("error", errors.Summarize(err)))
}

func (o *logObserver) SeriesChanged(points []series.Point) {
	if len(points) == 0 {
		return
	}
	last := points[len(points)-1]
	o.log.Debug("chart updated",
		zap.Int("points", len(points)),
		zap.String("label", last.Label),
		zap.Float64("value", last.Value))
}

func (o *logObserver) MessageRejected(err error) {
	o.log.Warn("channel message rejected", zap.Error(err))
}
