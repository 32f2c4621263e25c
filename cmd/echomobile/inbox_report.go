package main

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avf-pipeline/echomobile-go/client"
	"github.com/avf-pipeline/echomobile-go/internal/records"
	"github.com/avf-pipeline/echomobile-go/internal/uuidtable"
)

// inboxMessageIDPrefix prefixes the fresh identifier minted for every
// inbox row. Unlike messages-report there is no lookup table: inbox rows
// carry no stable fingerprint, so each download mints new ids.
const inboxMessageIDPrefix = "avf-message-uuid-"

func newInboxReportCmd() *cobra.Command {
	var groupName, output, csvOutput, phoneTablePath string

	cmd := &cobra.Command{
		Use:   "inbox-report",
		Short: "Download an inbox (global or one group), de-identified, as JSON records",
		RunE: func(cmd *cobra.Command, args []string) error {
			phoneTable, err := loadTable(phoneIDPrefix, phoneTablePath)
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(ctx context.Context, s *client.Session) error {
				report, err := s.InboxReport(ctx, groupName, nil)
				if err != nil {
					return err
				}

				table, err := records.ParseCSV(strings.NewReader(report))
				if err != nil {
					return err
				}

				if err := deidentifyInboxRows(s, table, phoneTable); err != nil {
					return err
				}
				if err := saveTable(phoneTable, phoneTablePath); err != nil {
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

				if csvOutput != "" {
					cf, err := createOutputFile(csvOutput)
					if err != nil {
						return err
					}
					defer func() { _ = cf.Close() }()
					if err := table.WriteCSV(cf); err != nil {
						return err
					}
				}

				log.Info().
					Str("group", groupName).
					Int("rows", len(table.Rows)).
					Str("output", output).
					Msg("inbox report written")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&groupName, "group", "", "Group whose inbox to download (global inbox when omitted)")
	cmd.Flags().StringVar(&output, "output", "", "JSON file to write de-identified records to (required)")
	cmd.Flags().StringVar(&csvOutput, "csv-output", "", "Optionally also write the de-identified report as CSV to this file")
	cmd.Flags().StringVar(&phoneTablePath, "phone-table", "", "JSON phone number <-> UUID lookup table, updated in place (required)")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("phone-table")

	return cmd
}

// deidentifyInboxRows replaces each row's raw phone number with its
// stable pseudonymous identifier, mints a fresh message identifier,
// drops the Phone and Sender columns, and converts the Date and
// upload_date fields to ISO in the session timezone.
func deidentifyInboxRows(s *client.Session, table *records.Table, phoneTable *uuidtable.Table) error {
	for _, row := range table.Rows {
		row["avf_phone_id"] = phoneTable.GetOrCreate(row["Phone"])
		row["avf_message_id"] = inboxMessageIDPrefix + uuid.New().String()
		delete(row, "Phone")
		delete(row, "Sender")

		for _, key := range []string{"Date", "upload_date"} {
			v, ok := row[key]
			if !ok {
				continue
			}
			iso, err := s.ParseExportDate(v, nil)
			if err != nil {
				return err
			}
			row[key] = iso
		}
	}

	headers := make([]string, 0, len(table.Headers)+2)
	for _, h := range table.Headers {
		if h == "Phone" || h == "Sender" {
			continue
		}
		headers = append(headers, h)
	}
	table.Headers = append(headers, "avf_phone_id", "avf_message_id")
	return nil
}
