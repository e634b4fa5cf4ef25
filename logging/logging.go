// Package logging constructs the zap logger shared by the application.
// Services receive a *zap.SugaredLogger through their constructors, the same
// manual injection used for every other dependency.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a sugared logger for the given mode. "prod"/"production"
// selects the JSON production config; anything else gets the human-readable
// development config.
func New(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
