package config

import (
	"biasaudit/internal/errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the global zap logger from cfg.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeConfigInvalid, err), "parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
