package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avf-pipeline/echomobile-go/client"
	"github.com/avf-pipeline/echomobile-go/internal/records"
	"github.com/avf-pipeline/echomobile-go/internal/uuidtable"
)

const (
	phoneIDPrefix   = "avf-phone-id-"
	messageIDPrefix = "avf-message-id-"
)

func newMessagesReportCmd() *cobra.Command {
	var (
		startDateISO, endDateISO string
		direction                string
		phoneTablePath           string
		messageTablePath         string
		output                   string
	)

	cmd := &cobra.Command{
		Use:   "messages-report",
		Short: "Download a date range of messages, de-identified via UUID lookup tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, startDateISO)
			if err != nil {
				return fmt.Errorf("--start-date must be ISO-8601 with an offset: %w", err)
			}
			end, err := time.Parse(time.RFC3339, endDateISO)
			if err != nil {
				return fmt.Errorf("--end-date must be ISO-8601 with an offset: %w", err)
			}

			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}

			phoneTable, err := loadTable(phoneIDPrefix, phoneTablePath)
			if err != nil {
				return err
			}
			messageTable, err := loadTable(messageIDPrefix, messageTablePath)
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(ctx context.Context, s *client.Session) error {
				// The platform expects range bounds as calendar dates in
				// the account's timezone, not the caller's.
				accStart, err := s.ToAccountTime(start)
				if err != nil {
					return err
				}
				accEnd, err := s.ToAccountTime(end)
				if err != nil {
					return err
				}

				report, err := s.MessagesReport(ctx, client.MessagesReportRequest{
					StartDate: accStart.Format("2006-01-02"),
					EndDate:   accEnd.Format("2006-01-02"),
					Direction: dir,
				})
				if err != nil {
					return err
				}

				table, err := records.ParseCSV(strings.NewReader(report))
				if err != nil {
					return err
				}

				// De-identify each row, normalize its timestamp, and drop
				// rows outside [start, end) — the report covers whole
				// calendar days, so its edges are wider than asked for.
				kept := make([]map[string]string, 0, len(table.Rows))
				for _, row := range table.Rows {
					row["avf_phone_id"] = phoneTable.GetOrCreate(row["Phone"])
					delete(row, "Phone")

					iso, err := s.ParseExportDate(row["Date"], nil)
					if err != nil {
						return err
					}
					row["Date"] = iso

					sent, err := time.Parse(time.RFC3339, iso)
					if err != nil {
						return err
					}
					if sent.Before(accStart) || !sent.Before(accEnd) {
						continue
					}

					norm, err := client.NormalizeMessage(row, "avf_phone_id", "Date", "Message")
					if err != nil {
						return err
					}
					fingerprint, err := json.Marshal(norm)
					if err != nil {
						return err
					}
					row["avf_message_id"] = messageTable.GetOrCreate(string(fingerprint))

					kept = append(kept, row)
				}

				if err := saveTable(phoneTable, phoneTablePath); err != nil {
					return err
				}
				if err := saveTable(messageTable, messageTablePath); err != nil {
					return err
				}

				f, err := createOutputFile(output)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				if err := records.WriteJSON(f, kept); err != nil {
					return err
				}

				log.Info().
					Int("messages", len(kept)).
					Int("filtered_out", len(table.Rows)-len(kept)).
					Str("output", output).
					Msg("messages report written")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&startDateISO, "start-date", "", "Inclusive start of the message range, ISO-8601 with offset (required)")
	cmd.Flags().StringVar(&endDateISO, "end-date", "", "Exclusive end of the message range, ISO-8601 with offset (required)")
	cmd.Flags().StringVar(&direction, "direction", "incoming", "Message direction filter: incoming, outgoing, both, or all")
	cmd.Flags().StringVar(&phoneTablePath, "phone-table", "", "JSON phone number <-> UUID lookup table, updated in place (required)")
	cmd.Flags().StringVar(&messageTablePath, "message-table", "", "JSON message -> UUID lookup table, updated in place (required)")
	cmd.Flags().StringVar(&output, "output", "", "JSON file to write de-identified messages to (required)")
	_ = cmd.MarkFlagRequired("start-date")
	_ = cmd.MarkFlagRequired("end-date")
	_ = cmd.MarkFlagRequired("phone-table")
	_ = cmd.MarkFlagRequired("message-table")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// parseDirection maps the flag value to the platform's direction filter.
// "all" means no filter at all.
func parseDirection(v string) (*client.MessageDirection, error) {
	var d client.MessageDirection
	switch v {
	case "incoming":
		d = client.DirectionIncoming
	case "outgoing":
		d = client.DirectionOutgoing
	case "both":
		d = client.DirectionBoth
	case "all", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown direction %q (want incoming, outgoing, both, or all)", v)
	}
	return &d, nil
}

// loadTable reads an existing lookup table, or starts an empty one when
// the file does not exist yet.
func loadTable(prefix, path string) (*uuidtable.Table, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return uuidtable.New(prefix), nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return uuidtable.Load(prefix, f)
}

func saveTable(t *uuidtable.Table, path string) error {
	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return t.Save(f)
}
