package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/app"
	"github.com/sigma-teacher/tutor/internal/curriculum"
)

var quitWords = []string{"/sair", "/quit", "/exit"}

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Study a curriculum in the terminal",
		Long: `Starts a local tutoring session kept in memory. The curriculum comes from
--domain (a YAML document) or is built from --text/--file. Type /sair to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := startInput(cmd)
			if err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("domain"); path != "" {
				doc, err := curriculum.LoadDomain(path)
				if err != nil {
					return err
				}
				d := doc.Domain()
				in.Domain = &d
				if in.Audience == "" {
					in.Audience = doc.Audience
				}
			} else if in.Text == "" && len(in.Documents) == 0 {
				return fmt.Errorf("provide --domain, --text or --file")
			}

			orc, err := newOracle(ctx, cfg)
			if err != nil {
				return err
			}
			engine := agent.NewEngine(app.EngineConfig(cfg.Tutor, orc))

			out := cmd.OutOrStdout()
			res, err := engine.Start(ctx, in)
			if err != nil {
				return err
			}
			printTurn(out, res)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for res.Status != agent.StatusCompleted {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if isQuit(line) {
					break
				}

				res, err = engine.Turn(ctx, res.SessionID, line)
				if err != nil {
					return err
				}
				printTurn(out, res)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			fmt.Fprintf(out, "\nProgresso: %.1f%%\n", res.Progress)
			return nil
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().String("domain", "", "Curriculum YAML file to study")
	return cmd
}

func printTurn(w io.Writer, res agent.TurnResult) {
	fmt.Fprintf(w, "\n%s\n\n", res.TutorMessage)
}

func isQuit(line string) bool {
	for _, q := range quitWords {
		if strings.EqualFold(line, q) {
			return true
		}
	}
	return false
}
