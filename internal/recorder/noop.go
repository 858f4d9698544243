package recorder

import "ICTSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPhaseEvent(_ *PhaseEvent) error            { return nil }
func (n *NoopRecorder) RecordTradePlan(_ *TradePlanRecord) error        { return nil }
func (n *NoopRecorder) RecordClosedTrade(_ *model.ClosedTrade) error    { return nil }
func (n *NoopRecorder) RecordDaySummary(_ *DaySummary) error            { return nil }
func (n *NoopRecorder) RecentTrades(_ int) ([]model.ClosedTrade, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }
