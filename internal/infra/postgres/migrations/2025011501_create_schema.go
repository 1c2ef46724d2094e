package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_schema.sql
var createSchemaSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP FUNCTION IF EXISTS add_user_xp(TEXT, INTEGER);
				DROP FUNCTION IF EXISTS is_lesson_completed(TEXT, TEXT);
				DROP TABLE IF EXISTS quizzes;
				DROP TABLE IF EXISTS user_progress;
				DROP TABLE IF EXISTS lessons;
				DROP TABLE IF EXISTS profiles`)
			return err
		},
	)
}
