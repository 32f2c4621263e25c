package client

import (
	"fmt"
	"regexp"
)

// reportDateRegex validates the YYYY-MM-DD range bounds of a messages report.
var reportDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validateReportDate(date string) error {
	if date == "" {
		return fmt.Errorf("date is required")
	}
	if !reportDateRegex.MatchString(date) {
		return fmt.Errorf("date %q must be in the format YYYY-MM-DD", date)
	}
	return nil
}
