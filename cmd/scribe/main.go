package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/meddor/scribe/internal/clock"
	"github.com/meddor/scribe/internal/config"
	"github.com/meddor/scribe/internal/logger"
	"github.com/meddor/scribe/internal/migration"
	"github.com/meddor/scribe/internal/server"
	"github.com/meddor/scribe/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
