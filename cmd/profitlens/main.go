package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/profitlens/internal/cache"
	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/config"
	"github.com/smallbiznis/profitlens/internal/migration"
	"github.com/smallbiznis/profitlens/internal/observability"
	"github.com/smallbiznis/profitlens/internal/server"
	"github.com/smallbiznis/profitlens/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		migration.Module,

		// Sources, ledger, analytics, verification, sync and the HTTP API
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
