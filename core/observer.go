package core

import "log/slog"

// Observer receives progress while a payoff table is built. Implementations
// must be safe for concurrent use: workers report independently.
type Observer interface {
	StrategiesEnumerated(player, count int)
	ProfileEvaluated(done, total int)
}

// NopObserver discards every notification.
type NopObserver struct{}

func (NopObserver) StrategiesEnumerated(int, int) {}
func (NopObserver) ProfileEvaluated(int, int)     {}

// LogObserver reports catalogue sizes and every tenth of the evaluated
// profiles to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o LogObserver) StrategiesEnumerated(player, count int) {
	o.logger().Info("strategies enumerated",
		slog.Int("player", player),
		slog.Int("strategies", count),
	)
}

func (o LogObserver) ProfileEvaluated(done, total int) {
	step := max(total/10, 1)
	if done%step != 0 && done != total {
		return
	}
	o.logger().Info("payoff progress",
		slog.Int("done", done),
		slog.Int("total", total),
	)
}
