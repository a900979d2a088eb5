package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigma-teacher/tutor/internal/curriculum"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

func newBuildDomainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build-domain",
		Short: "Build a curriculum from source material and print it as YAML",
		Example: `  tutorctl build-domain --file aula.pdf --topics 4 --id fracoes > fracoes.yaml
  tutorctl build-domain --text "$(cat transcricao.txt)" --out fracoes.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := startInput(cmd)
			if err != nil {
				return err
			}
			if in.Text == "" && len(in.Documents) == 0 {
				return fmt.Errorf("provide --text or --file")
			}

			orc, err := newOracle(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			build := tutor.BuildInput{
				Text:       in.Text,
				Documents:  in.Documents,
				TopicCount: in.TopicCount,
				Audience:   in.Audience,
			}
			if build.TopicCount <= 0 {
				build.TopicCount = cfg.Tutor.TopicCount
			}
			if build.Audience == "" {
				build.Audience = cfg.Tutor.Audience
			}

			d, err := tutor.NewBuilder(orc).Build(cmd.Context(), build.Normalized())
			if err != nil {
				return err
			}
			if d.Empty() {
				return fmt.Errorf("no topics could be extracted from the material")
			}

			id, _ := cmd.Flags().GetString("id")
			out := cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			return curriculum.WriteDomain(out, id, d)
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().String("id", "", "Curriculum id written to the document")
	cmd.Flags().String("out", "", "Write to this file instead of stdout")
	return cmd
}
