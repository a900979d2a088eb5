package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/platform/database"
	"github.com/sigma-teacher/tutor/internal/report"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a stored session's progress and history to an xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Database.URL == "" {
				return fmt.Errorf("ITS_DATABASE_URL is required to export stored sessions")
			}
			ctx := cmd.Context()

			db, err := database.New(ctx, cfg.Database.URL, 2, 1)
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := agent.NewPostgresStore(db.Pool)
			if err != nil {
				return err
			}
			sess, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("out")
			if path == "" {
				path = "session-" + sess.ID + ".xlsx"
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := report.Write(f, sess); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output file (default session-<id>.xlsx)")
	return cmd
}
