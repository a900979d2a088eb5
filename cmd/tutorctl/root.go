package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/app"
	"github.com/sigma-teacher/tutor/internal/platform/config"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

// newOracle builds the oracle used by build-domain and chat.
var newOracle = func(ctx context.Context, cfg *config.Config) (tutor.DocumentOracle, error) {
	orc, _, err := app.NewOracle(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return orc, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tutorctl",
		Short:         "Intelligent tutoring system tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			// The terminal is for the conversation; only warnings go to stderr.
			loaded.Log.Format = "text"
			loaded.Log.Level = "warn"
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				loaded.Log.Level = lvl
			}
			slog.SetDefault(app.NewLogger(cmd.ErrOrStderr(), loaded.Log))
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "", "Log level (default warn)")

	root.AddCommand(newBuildDomainCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newExportCmd())
	return root
}

// startInput collects source material from flags: inline text, text files
// and binary documents.
func startInput(cmd *cobra.Command) (agent.StartInput, error) {
	var in agent.StartInput

	text, _ := cmd.Flags().GetString("text")
	parts := []string{}
	if t := strings.TrimSpace(text); t != "" {
		parts = append(parts, t)
	}

	docs, _ := cmd.Flags().GetStringSlice("file")
	for _, path := range docs {
		data, err := os.ReadFile(path)
		if err != nil {
			return in, fmt.Errorf("read %s: %w", path, err)
		}
		mime := mimeType(path)
		if strings.HasPrefix(mime, "text/") {
			parts = append(parts, string(data))
			continue
		}
		in.Documents = append(in.Documents, ai.Document{Name: filepath.Base(path), MIMEType: mime, Data: data})
	}
	in.Text = strings.Join(parts, "\n")

	in.TopicCount, _ = cmd.Flags().GetInt("topics")
	in.Audience, _ = cmd.Flags().GetString("audience")
	return in, nil
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("text", "", "Source material text")
	cmd.Flags().StringSlice("file", nil, "Source file (text, markdown, pdf or image); repeatable")
	cmd.Flags().Int("topics", 0, "Number of topics to generate (default from ITS_TUTOR_TOPIC_COUNT)")
	cmd.Flags().String("audience", "", "Target audience (default from ITS_TUTOR_AUDIENCE)")
}
