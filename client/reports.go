package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// SurveyReportRequest parameterizes a survey report (type 13).
type SurveyReportRequest struct {
	SurveyKey string

	// ResponseFormats selects how answers are rendered. Defaults to
	// ["raw", "label"]. The full list of options is: raw, label, value,
	// score.
	ResponseFormats []string

	// ContactFields selects the contact columns to include. Defaults to
	// ["name", "phone"]. The full list of options is: name, phone,
	// internal_id, group, referrer, referrer_phone, upload_date,
	// last_survey_complete_date, geo, locationTextRaw, labels,
	// linked_entity, opted_out.
	ContactFields []string
}

// InboxReportRequest parameterizes an inbox report. An empty GroupKey
// targets the account's global inbox (type 11); otherwise the named
// group's inbox (type 10).
type InboxReportRequest struct {
	GroupKey string

	// ContactFields selects additional contact columns; "Sender" and
	// "Phone" are always included. Defaults to ["group", "upload_date"].
	// The full list of options is: internal_id, group, referrer,
	// upload_date, last_survey_complete_date, geo, locationTextRaw,
	// labels.
	ContactFields []string
}

// MessagesReportRequest parameterizes a date-ranged report (type 17) of
// all messages sent/received by the organisation.
type MessagesReportRequest struct {
	// StartDate and EndDate bound the range inclusively, format YYYY-MM-DD.
	StartDate string
	EndDate   string

	// Direction, when non-nil, restricts the report to one direction.
	Direction *MessageDirection
}

// registerTask records a freshly issued report in the outstanding set.
// This happens before any polling so that cleanup stays possible even if
// the poll is aborted.
func (s *Session) registerTask(reportKey string, typ ReportType) {
	s.tasks[reportTaskKey(reportKey)] = struct{}{}
	reportsGeneratedTotal.WithLabelValues(strconv.Itoa(int(typ))).Inc()
}

// GenerateSurveyReport asks the server to start generating a survey
// report and returns the report key. The report is not ready until
// AwaitReportGenerated says so.
func (s *Session) GenerateSurveyReport(ctx context.Context, req SurveyReportRequest) (string, error) {
	formats := req.ResponseFormats
	if formats == nil {
		formats = []string{"raw", "label"}
	}
	fields := req.ContactFields
	if fields == nil {
		fields = []string{"name", "phone"}
	}

	log.Debug().Str("survey_key", req.SurveyKey).Msg("requesting survey report")

	var resp generateReportResponse
	err := s.do(ctx, "POST", "cms/report/generate", url.Values{
		"type":      {strconv.Itoa(int(ReportTypeSurvey))},
		"ftype":     {strconv.Itoa(int(FileTypeCSV))},
		"target":    {req.SurveyKey},
		"gen":       {strings.Join(formats, ",")},
		"std_field": {strings.Join(fields, ",")},
	}, &resp)
	if err != nil {
		return "", err
	}

	s.registerTask(resp.ReportKey, ReportTypeSurvey)
	return resp.ReportKey, nil
}

// GenerateInboxReport asks the server to start generating an inbox
// report and returns the report key.
//
// Platform quirk: for the global inbox (empty GroupKey) the task's
// progress reports 0% until it completes, so stuck-at-zero progress is
// not a hang signal for this report kind.
func (s *Session) GenerateInboxReport(ctx context.Context, req InboxReportRequest) (string, error) {
	fields := req.ContactFields
	if fields == nil {
		fields = []string{"group", "upload_date"}
	}

	typ := ReportTypeInbox
	params := url.Values{
		"ftype":     {strconv.Itoa(int(FileTypeCSV))},
		"std_field": {strings.Join(fields, ",")},
	}
	if req.GroupKey == "" {
		typ = ReportTypeSearch
		log.Debug().Msg("requesting global inbox report (progress reports 0% until done)")
	} else {
		params.Set("target", req.GroupKey)
		log.Debug().Str("group_key", req.GroupKey).Msg("requesting inbox report")
	}
	params.Set("type", strconv.Itoa(int(typ)))

	var resp generateReportResponse
	if err := s.do(ctx, "POST", "cms/report/generate", params, &resp); err != nil {
		return "", err
	}

	s.registerTask(resp.ReportKey, typ)
	return resp.ReportKey, nil
}

// GenerateMessagesReport asks the server to start generating a report of
// all the organisation's messages in the given date range and returns
// the report key. The organisation key comes from the login context, so
// this fails with ErrNoSessionData before a successful Login.
func (s *Session) GenerateMessagesReport(ctx context.Context, req MessagesReportRequest) (string, error) {
	if s.login == nil {
		return "", ErrNoSessionData
	}
	if err := validateReportDate(req.StartDate); err != nil {
		return "", fmt.Errorf("start date: %w", err)
	}
	if err := validateReportDate(req.EndDate); err != nil {
		return "", fmt.Errorf("end date: %w", err)
	}

	log.Debug().
		Str("start_date", req.StartDate).
		Str("end_date", req.EndDate).
		Msg("requesting messages report")

	params := url.Values{
		"type":            {strconv.Itoa(int(ReportTypeAllMessages))},
		"ftype":           {strconv.Itoa(int(FileTypeCSV))},
		"target":          {s.login.Enterprise.Key},
		"additionalSpecs": {"direction,channel,filter_type"},
		"startDate":       {req.StartDate},
		"endDate":         {req.EndDate},
	}
	if req.Direction != nil {
		params.Set("filter_type", "direction")
		params.Set("direction", strconv.Itoa(int(*req.Direction)))
	}

	var resp generateReportResponse
	if err := s.do(ctx, "POST", "cms/report/generate", params, &resp); err != nil {
		return "", err
	}

	s.registerTask(resp.ReportKey, ReportTypeAllMessages)
	return resp.ReportKey, nil
}

// errStillGenerating signals the poll loop to keep waiting.
var errStillGenerating = fmt.Errorf("report still generating")

// AwaitReportGenerated polls the background-task listing at the session's
// poll interval until the report's task leaves the generating state.
// Only the documented success status terminates the wait cleanly; any
// other terminal status is an *UnexpectedTaskStatusError. The wait is
// unbounded by design — bound it through ctx if needed.
func (s *Session) AwaitReportGenerated(ctx context.Context, reportKey string) error {
	taskKey := reportTaskKey(reportKey)

	check := func() error {
		pollCyclesTotal.Inc()

		var resp backgroundTasksResponse
		if err := s.do(ctx, "GET", "cms/backgroundtask", nil, &resp); err != nil {
			return backoff.Permanent(err)
		}

		task, ok := resp.Tasks[taskKey]
		if !ok {
			return backoff.Permanent(fmt.Errorf("task %s not reported by server", taskKey))
		}

		if task.Total != 0 {
			log.Debug().
				Str("task", taskKey).
				Float64("percent", task.Progress/task.Total*100).
				Msg("report generating")
		}

		switch task.Status {
		case taskStatusGenerating:
			return errStillGenerating
		case taskStatusComplete:
			return nil
		default:
			return backoff.Permanent(&UnexpectedTaskStatusError{TaskKey: taskKey, Status: task.Status})
		}
	}

	bo := backoff.WithContext(backoff.NewConstantBackOff(s.pollInterval), ctx)
	return backoff.Retry(check, bo)
}

// DownloadReport fetches a generated report's content as raw CSV text.
// The report must have reached the successful terminal status first;
// downloading earlier yields platform-defined error content instead.
func (s *Session) DownloadReport(ctx context.Context, reportKey string) (string, error) {
	log.Debug().Str("report_key", reportKey).Msg("downloading report")
	return s.doText(ctx, "GET", "cms/report/serve", url.Values{"rkey": {reportKey}})
}

// report chains generate → await → download for the composite helpers.
func (s *Session) report(ctx context.Context, reportKey string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if err := s.AwaitReportGenerated(ctx, reportKey); err != nil {
		return "", err
	}
	return s.DownloadReport(ctx, reportKey)
}

// SurveyReportForKey generates, awaits and downloads a survey report.
func (s *Session) SurveyReportForKey(ctx context.Context, req SurveyReportRequest) (string, error) {
	key, err := s.GenerateSurveyReport(ctx, req)
	return s.report(ctx, key, err)
}

// SurveyReportForName generates, awaits and downloads a report for the
// survey with the given name.
func (s *Session) SurveyReportForName(ctx context.Context, name string) (string, error) {
	key, err := s.SurveyKeyForName(ctx, name)
	if err != nil {
		return "", err
	}
	return s.SurveyReportForKey(ctx, SurveyReportRequest{SurveyKey: key})
}

// GroupInboxReportForKey generates, awaits and downloads an inbox report
// for the group with the given key.
func (s *Session) GroupInboxReportForKey(ctx context.Context, groupKey string, contactFields []string) (string, error) {
	key, err := s.GenerateInboxReport(ctx, InboxReportRequest{GroupKey: groupKey, ContactFields: contactFields})
	return s.report(ctx, key, err)
}

// GroupInboxReportForName generates, awaits and downloads an inbox
// report for the group with the given name.
func (s *Session) GroupInboxReportForName(ctx context.Context, groupName string, contactFields []string) (string, error) {
	groupKey, err := s.GroupKeyForName(ctx, groupName)
	if err != nil {
		return "", err
	}
	return s.GroupInboxReportForKey(ctx, groupKey, contactFields)
}

// GlobalInboxReport generates, awaits and downloads a report for the
// account's global inbox.
func (s *Session) GlobalInboxReport(ctx context.Context, contactFields []string) (string, error) {
	key, err := s.GenerateInboxReport(ctx, InboxReportRequest{ContactFields: contactFields})
	return s.report(ctx, key, err)
}

// InboxReport downloads the inbox report for the named group, or the
// global inbox when groupName is empty.
func (s *Session) InboxReport(ctx context.Context, groupName string, contactFields []string) (string, error) {
	if groupName == "" {
		return s.GlobalInboxReport(ctx, contactFields)
	}
	return s.GroupInboxReportForName(ctx, groupName, contactFields)
}

// MessagesReport generates, awaits and downloads a date-ranged report of
// the organisation's messages.
func (s *Session) MessagesReport(ctx context.Context, req MessagesReportRequest) (string, error) {
	key, err := s.GenerateMessagesReport(ctx, req)
	return s.report(ctx, key, err)
}
