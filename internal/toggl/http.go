package toggl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tally/internal/timeentry"
)

// Default API endpoints. Overridable for tests.
const (
	DefaultAPIURL     = "https://api.track.toggl.com/api/v9"
	DefaultReportsURL = "https://api.track.toggl.com/reports/api/v2"
)

// HTTPDoer describes the HTTP client used by the tracker transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials holds the connection settings for one tracker workspace.
type Credentials struct {
	APIToken   string
	Workspace  int64
	APIURL     string
	ReportsURL string
}

type httpService struct {
	creds      Credentials
	apiURL     string
	reportsURL string
	client     HTTPDoer
	logger     *slog.Logger
}

// NewService constructs an HTTP-backed tracker service. A nil doer falls
// back to http.DefaultClient and a nil logger to slog.Default.
func NewService(creds Credentials, doer HTTPDoer, logger *slog.Logger) Service {
	if doer == nil {
		doer = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	apiURL := creds.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	reportsURL := creds.ReportsURL
	if reportsURL == "" {
		reportsURL = DefaultReportsURL
	}
	return &httpService{
		creds:      creds,
		apiURL:     strings.TrimRight(apiURL, "/"),
		reportsURL: strings.TrimRight(reportsURL, "/"),
		client:     doer,
		logger:     logger,
	}
}

func (s *httpService) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build tracker request: %w", err)
	}
	// The tracker uses basic auth with the token as username and the
	// literal string "api_token" as password.
	req.SetBasicAuth(s.creds.APIToken, "api_token")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call tracker api: %w", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("tracker api: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read tracker response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode tracker response: %w", err)
	}
	return nil
}

func (s *httpService) catalog(ctx context.Context, kind string) ([]CatalogItem, error) {
	var items []CatalogItem
	rawURL := fmt.Sprintf("%s/workspaces/%d/%s", s.apiURL, s.creds.Workspace, kind)
	if err := s.get(ctx, rawURL, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return items, nil
}

func (s *httpService) Clients(ctx context.Context) ([]CatalogItem, error) {
	return s.catalog(ctx, "clients")
}

func (s *httpService) Projects(ctx context.Context) ([]CatalogItem, error) {
	return s.catalog(ctx, "projects")
}

func (s *httpService) Tags(ctx context.Context) ([]CatalogItem, error) {
	return s.catalog(ctx, "tags")
}

type reportPage struct {
	TotalCount int           `json:"total_count"`
	PerPage    int           `json:"per_page"`
	Data       []reportEntry `json:"data"`
}

type reportEntry struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Client      string    `json:"client"`
	ClientID    int64     `json:"client_id"`
	Project     string    `json:"project"`
	ProjectID   int64     `json:"pid"`
	Tags        []string  `json:"tags"`
}

// DetailedReport pages through the detailed report until every matching
// entry is fetched, in the tracker's default date ordering.
func (s *httpService) DetailedReport(ctx context.Context, query ReportQuery) ([]timeentry.Entry, error) {
	var entries []timeentry.Entry
	for page := 1; ; page++ {
		rawURL := s.reportsURL + "/details?" + s.reportParams(query, page)
		var decoded reportPage
		if err := s.get(ctx, rawURL, &decoded); err != nil {
			return nil, fmt.Errorf("detailed report page %d: %w", page, err)
		}
		if len(decoded.Data) == 0 {
			break
		}
		for _, row := range decoded.Data {
			entries = append(entries, timeentry.Entry{
				ID:          row.ID,
				Description: row.Description,
				Start:       row.Start,
				Stop:        row.End,
				Project: timeentry.Project{
					ID:     row.ProjectID,
					Name:   row.Project,
					Client: timeentry.Client{ID: row.ClientID, Name: row.Client},
				},
				Tags: row.Tags,
			})
		}
		if len(entries) >= decoded.TotalCount {
			break
		}
	}
	s.logger.Debug("fetched report entries", "count", len(entries))
	return entries, nil
}

func (s *httpService) reportParams(query ReportQuery, page int) string {
	params := url.Values{}
	params.Set("user_agent", "tally")
	params.Set("workspace_id", strconv.FormatInt(s.creds.Workspace, 10))
	params.Set("page", strconv.Itoa(page))
	if !query.Since.IsZero() {
		params.Set("since", query.Since.Format(time.RFC3339))
	}
	if !query.Until.IsZero() {
		params.Set("until", query.Until.Format(time.RFC3339))
	}
	if ids := joinIDs(query.ClientIDs); ids != "" {
		params.Set("client_ids", ids)
	}
	if ids := joinIDs(query.ProjectIDs); ids != "" {
		params.Set("project_ids", ids)
	}
	if ids := joinIDs(query.TagIDs); ids != "" {
		params.Set("tag_ids", ids)
	}
	return params.Encode()
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
