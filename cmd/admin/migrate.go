package main

import (
	"context"

	"github.com/zapponejosh/pathshala-api/internal/database"
)

var migrateFunc = (*database.DB).RunMigrations // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	return migrateFunc(cli.db, ctx, args[0], args[1:]...)
}
