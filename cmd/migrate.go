/*
Copyright © 2026 M. Benavides

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package cmd

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the stock_prices schema",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		lg, m, err := migrator()
		if err != nil {
			return err
		}

		err = m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			lg.Info().Msg("database is already migrated fully up")
		case err != nil:
			return err
		default:
			lg.Info().Msg("migrated up")
		}
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		lg, m, err := migrator()
		if err != nil {
			return err
		}

		err = m.Down()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			lg.Info().Msg("database is already migrated fully down")
		case err != nil:
			return err
		default:
			lg.Info().Msg("migrated down")
		}
		return nil
	},
}

func migrator() (*log.Logger, *migrate.Migrate, error) {
	cfg, err := provideConfig()
	if err != nil {
		return nil, nil, err
	}
	lg := provideLogger(cfg.LogLevel)

	m, err := migrate.New(cfg.MigrationSource, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	m.Log = &migrationLogger{lg: lg}
	return lg, m, nil
}

// migrationLogger adapts the structured logger to migrate.Logger.
type migrationLogger struct {
	lg *log.Logger
}

func (l *migrationLogger) Printf(format string, v ...interface{}) {
	l.lg.Info().Msgf(format, v...)
}

func (l *migrationLogger) Verbose() bool {
	return l.lg.Level <= log.DebugLevel
}

func init() {
	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
	rootCmd.AddCommand(migrateCmd)
}
