package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/avelasco/trainsight/internal/core"
)

// API is the vendor surface consumed by the fetch service. MockAPI
// implements it for tests.
type API interface {
	Activities(ctx context.Context, window DateRange) ([]Activity, error)
	ActivityDetail(ctx context.Context, id int64) (*ActivityDetail, error)
	BodyComposition(ctx context.Context, window DateRange) ([]BodyComposition, error)
	UserProfile(ctx context.Context) (*UserProfile, error)
	SleepSummaries(ctx context.Context, window DateRange) ([]SleepSummary, error)
}

// APIError is returned when the vendor API answers with a non-2xx status
// that retries could not resolve.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vendor API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Client is the HTTP client for the vendor API. Retry and backoff for 429
// and 5xx responses are delegated to retryablehttp.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a vendor API client with sane retry defaults.
func NewClient(token, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 30 * time.Second
	rc.HTTPClient.Timeout = 60 * time.Second
	rc.Logger = nil

	return &Client{
		token:   token,
		baseURL: baseURL,
		http:    rc.StandardClient(),
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build vendor request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("vendor request", slog.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "vendor request %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read vendor response")
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to decode vendor response for %s", path)
	}
	return nil
}

func rangeParams(window DateRange) url.Values {
	return url.Values{
		"startDate": {core.FormatDate(window.Start)},
		"endDate":   {core.FormatDate(window.End)},
	}
}

// Activities lists activities inside the window, newest first.
func (c *Client) Activities(ctx context.Context, window DateRange) ([]Activity, error) {
	var out []Activity
	err := c.get(ctx, "/activitylist-service/activities/search/activities", rangeParams(window), &out)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("activities fetched", slog.Int("count", len(out)))
	return out, nil
}

// ActivityDetail fetches full metrics for one activity.
func (c *Client) ActivityDetail(ctx context.Context, id int64) (*ActivityDetail, error) {
	var out ActivityDetail
	path := fmt.Sprintf("/activity-service/activity/%d", id)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BodyComposition lists scale measurements inside the window. The vendor
// wraps the list under dateWeightList.
func (c *Client) BodyComposition(ctx context.Context, window DateRange) ([]BodyComposition, error) {
	var wrapper struct {
		DateWeightList []BodyComposition `json:"dateWeightList"`
	}
	err := c.get(ctx, "/weight-service/weight/dateRange", rangeParams(window), &wrapper)
	if err != nil {
		return nil, err
	}
	return wrapper.DateWeightList, nil
}

// UserProfile fetches the athlete's profile snapshot.
func (c *Client) UserProfile(ctx context.Context) (*UserProfile, error) {
	var out UserProfile
	if err := c.get(ctx, "/userprofile-service/socialProfile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SleepSummaries lists nightly sleep rollups inside the window.
func (c *Client) SleepSummaries(ctx context.Context, window DateRange) ([]SleepSummary, error) {
	var wrapper struct {
		DailySleep []SleepSummary `json:"dailySleepDTO"`
	}
	err := c.get(ctx, "/wellness-service/wellness/dailySleepData", rangeParams(window), &wrapper)
	if err != nil {
		return nil, err
	}
	return wrapper.DailySleep, nil
}
