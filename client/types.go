package client

// ------------------------------
// Wire types and platform codes
// ------------------------------

// The numeric codes below are not documented by Echo Mobile; they were
// determined by inspecting the REST calls the website makes.

// ReportType identifies the kind of export the platform should generate.
type ReportType int

const (
	ReportTypeInbox       ReportType = 10
	ReportTypeSearch      ReportType = 11 // global inbox
	ReportTypeSurvey      ReportType = 13
	ReportTypeAllMessages ReportType = 17
)

// FileType identifies the file format of a generated report.
type FileType int

const (
	FileTypeCSV FileType = 1
	FileTypeTSV FileType = 5
)

// MessageDirection filters a messages report by direction.
type MessageDirection int

const (
	DirectionIncoming MessageDirection = 0
	DirectionOutgoing MessageDirection = 1
	DirectionBoth     MessageDirection = 2
)

// Background-task status values. Only these two have an observed meaning:
// 1 while the report is generating, 3 once it generated successfully.
const (
	taskStatusGenerating = 1
	taskStatusComplete   = 3
)

// apiResponse is the success/message envelope every JSON endpoint shares.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Enterprise is the organisation an account belongs to.
type Enterprise struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// LoginContext is the metadata the server reports at successful
// authentication. It is the sole source of the organisation key and the
// account timezone used elsewhere in the session.
type LoginContext struct {
	TZ         string     `json:"tz"`
	Enterprise Enterprise `json:"enterprise"`
	AccountKey string     `json:"acckey"`
}

// Account is a linked account available to the authenticated user.
type Account struct {
	Key  string `json:"key"`
	Name string `json:"ent_name"`
}

// Group is a contact group within the active account.
type Group struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Survey is a survey within the active account.
type Survey struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// BackgroundTask is one tracked unit of server-side work, as reported by
// the backgroundtask listing endpoint.
type BackgroundTask struct {
	Status   int     `json:"status"`
	Progress float64 `json:"progress"`
	Total    float64 `json:"total"`
}

// reportTaskKey maps a report key to its background-task key.
func reportTaskKey(reportKey string) string {
	return "report_" + reportKey
}

type loginResponse struct {
	apiResponse
	LoginContext
}

type accountsResponse struct {
	apiResponse
	Linked []Account `json:"linked"`
}

type groupsResponse struct {
	apiResponse
	Groups []Group `json:"groups"`
}

type surveysResponse struct {
	apiResponse
	Surveys []Survey `json:"surveys"`
}

type generateReportResponse struct {
	apiResponse
	ReportKey string `json:"rkey"`
}

type backgroundTasksResponse struct {
	apiResponse
	Tasks map[string]BackgroundTask `json:"tasks"`
}
