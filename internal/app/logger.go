package app

import (
	"log/slog"
	"os"

	"food-delivery/internal/config"
	"food-delivery/internal/logx"
)

// NewLogger builds the process logger: zap when Format is "zap", a JSON
// slog handler otherwise.
func NewLogger(cfg config.Log) (logx.Logger, error) {
	if cfg.Format == "zap" {
		return logx.NewZapProduction(cfg.Level)
	}
	base := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logx.ParseSlogLevel(cfg.Level),
	}))
	return logx.NewSlogAdapter(base), nil
}
