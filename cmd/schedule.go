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
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/load"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run incremental load passes on a cron schedule",
	Long: `Starts a long-running process that executes an incremental load pass
for every configured group on the daily_cron schedule. Stops on SIGINT or
SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := provideConfig()
		if err != nil {
			return err
		}
		lg := provideLogger(cfg.LogLevel)

		st, err := provideStore(cmd.Context(), cfg)
		if err != nil {
			lg.Error().Err(err).Msg("cannot connect to database")
			os.Exit(1)
		}
		defer st.Close()

		c := cron.New()
		_, err = c.AddFunc(cfg.DailyCron, func() {
			sum := runLoadPass(cmd.Context(), cfg, lg, st, load.Options{})
			lg.Info().
				Int("loaded", sum.Loaded).
				Int("rows", sum.Rows).
				Int("skipped", sum.Skipped).
				Int("failed", sum.Failed).
				Msg("scheduled load pass finished")
		})
		if err != nil {
			return err
		}

		c.Start()
		lg.Info().Str("cron", cfg.DailyCron).Msg("scheduler started")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		lg.Info().Msg("shutting down scheduler")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
