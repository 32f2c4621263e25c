package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avf-pipeline/echomobile-go/client"
	"github.com/avf-pipeline/echomobile-go/internal/records"
)

func newSurveyReportCmd() *cobra.Command {
	var surveyName, output string

	cmd := &cobra.Command{
		Use:   "survey-report",
		Short: "Download a survey's results and write them as JSON records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *client.Session) error {
				report, err := s.SurveyReportForName(ctx, surveyName)
				if err != nil {
					return err
				}

				table, err := records.ParseCSV(strings.NewReader(report))
				if err != nil {
					return err
				}

				f, err := createOutputFile(output)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()

				if err := records.WriteJSON(f, table.Rows); err != nil {
					return err
				}

				log.Info().
					Str("survey", surveyName).
					Int("rows", len(table.Rows)).
					Str("output", output).
					Msg("survey report written")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&surveyName, "survey", "", "Name of survey to download the results of (required)")
	cmd.Flags().StringVar(&output, "output", "", "JSON file to write records to (required)")
	_ = cmd.MarkFlagRequired("survey")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newExportSurveysCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export-surveys",
		Short: "Download every survey's report into a directory of CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *client.Session) error {
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return err
				}

				surveys, err := s.Surveys(ctx)
				if err != nil {
					return err
				}

				for _, survey := range surveys {
					report, err := s.SurveyReportForKey(ctx, client.SurveyReportRequest{SurveyKey: survey.Key})
					if err != nil {
						return err
					}
					path := filepath.Join(outputDir, fmt.Sprintf("%s.csv", survey.Name))
					if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
						return err
					}
					log.Info().Str("survey", survey.Name).Str("output", path).Msg("survey exported")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory to write one CSV per survey into (required)")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}
