package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// MaxPerPage is the largest page Strava will return
const MaxPerPage = 200

// Client is a Strava API client
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *RateLimiter
}

// NewClient creates a new Strava API client
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return NewClientWithHTTP(oauth2.NewClient(context.Background(), tokenSource), BaseURL)
}

// NewClientWithHTTP creates a client that sends requests through httpClient
// to baseURL. Authentication is the caller's responsibility.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		rateLimiter: NewRateLimiter(),
	}
}

// GetAthlete fetches the authenticated athlete including their bikes
func (c *Client) GetAthlete(ctx context.Context) (*Athlete, error) {
	var athlete Athlete
	if err := c.getJSON(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, fmt.Errorf("fetching athlete: %w", err)
	}
	return &athlete, nil
}

// GetActivities fetches one page of activities started between after and
// before. Zero times leave that side open.
func (c *Client) GetActivities(ctx context.Context, after, before time.Time, page, perPage int) ([]Activity, error) {
	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	if !before.IsZero() {
		params.Set("before", strconv.FormatInt(before.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var activities []Activity
	if err := c.getJSON(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}
	return activities, nil
}

// GetAllActivities fetches all activities in the window
// It handles pagination automatically and respects rate limits
func (c *Client) GetAllActivities(ctx context.Context, after, before time.Time, perPage int, onProgress func(fetched int)) ([]Activity, error) {
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	var allActivities []Activity
	page := 1

	for {
		activities, err := c.GetActivities(ctx, after, before, page, perPage)
		if err != nil {
			return allActivities, fmt.Errorf("fetching page %d: %w", page, err)
		}

		if len(activities) == 0 {
			break
		}

		allActivities = append(allActivities, activities...)

		if onProgress != nil {
			onProgress(len(allActivities))
		}

		if len(activities) < perPage {
			break // Last page
		}

		page++
	}

	return allActivities, nil
}

// GetActivity fetches the detailed representation of an activity,
// including its description, gear and segment efforts
func (c *Client) GetActivity(ctx context.Context, activityID int64) (*Activity, error) {
	var activity Activity
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.getJSON(ctx, path, nil, &activity); err != nil {
		return nil, fmt.Errorf("fetching activity %d: %w", activityID, err)
	}
	return &activity, nil
}

// GetActivityStreams fetches the latlng track of an activity
func (c *Client) GetActivityStreams(ctx context.Context, activityID int64) (*Streams, error) {
	return c.getStreams(ctx, fmt.Sprintf("/activities/%d/streams", activityID))
}

// GetStarredSegments fetches one page of the athlete's starred segments
func (c *Client) GetStarredSegments(ctx context.Context, page, perPage int) ([]Segment, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var segments []Segment
	if err := c.getJSON(ctx, "/segments/starred", params, &segments); err != nil {
		return nil, fmt.Errorf("decoding starred segments: %w", err)
	}
	return segments, nil
}

// GetAllStarredSegments pages through every starred segment
func (c *Client) GetAllStarredSegments(ctx context.Context) ([]Segment, error) {
	var all []Segment
	for page := 1; ; page++ {
		segments, err := c.GetStarredSegments(ctx, page, MaxPerPage)
		if err != nil {
			return all, fmt.Errorf("fetching page %d: %w", page, err)
		}
		all = append(all, segments...)
		if len(segments) < MaxPerPage {
			return all, nil
		}
	}
}

// GetSegment fetches segment detail including the athlete's PR stats
func (c *Client) GetSegment(ctx context.Context, segmentID int64) (*Segment, error) {
	var segment Segment
	path := fmt.Sprintf("/segments/%d", segmentID)
	if err := c.getJSON(ctx, path, nil, &segment); err != nil {
		return nil, fmt.Errorf("fetching segment %d: %w", segmentID, err)
	}
	return &segment, nil
}

// GetSegmentStreams fetches the latlng track of a segment
func (c *Client) GetSegmentStreams(ctx context.Context, segmentID int64) (*Streams, error) {
	return c.getStreams(ctx, fmt.Sprintf("/segments/%d/streams", segmentID))
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) getStreams(ctx context.Context, path string) (*Streams, error) {
	params := url.Values{}
	params.Set("keys", "latlng,distance")
	params.Set("key_by_type", "true")

	var streams Streams
	if err := c.getJSON(ctx, path, params, &streams); err != nil {
		return nil, fmt.Errorf("decoding streams: %w", err)
	}
	return &streams, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Update rate limiter from response headers
	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

// APIError is a non-200 response from the API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}
