// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/pareto/internal/adapters/cas"
	_ "go.trai.ch/pareto/internal/adapters/config"
	_ "go.trai.ch/pareto/internal/adapters/hasher"
	_ "go.trai.ch/pareto/internal/adapters/logger"
	_ "go.trai.ch/pareto/internal/adapters/postgres"
	_ "go.trai.ch/pareto/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/pareto/internal/app"
	_ "go.trai.ch/pareto/internal/engine/optimizer"
)
