//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/cory-johannsen/devconsole/internal/config"
)

// InitializeApp wires the application graph for cfg.
func InitializeApp(cfg config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
