package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Common errors.
var (
	ErrUnauthorized = errors.New("canvas: unauthorized")
	ErrForbidden    = errors.New("canvas: access forbidden")
	ErrNotFound     = errors.New("canvas: resource not found")
	ErrTransient    = errors.New("canvas: transient error")
)

// Options configures the API client.
type Options struct {
	// BaseURL is the API host, e.g. https://school.instructure.com.
	BaseURL string

	// Token is the bearer token sent on every request.
	Token string

	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int

	// PerPage is the page size for listing requests.
	// Default: 100
	PerPage int
}

// Client is a Canvas REST API client. It makes exactly one attempt per
// request; 429 and 5xx responses surface as ErrTransient for the caller
// to handle. Safe for concurrent use.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	perPage int
}

// NewClient creates a new API client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = 100
	}
	if opts.PerPage == 0 {
		opts.PerPage = 100
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		perPage: opts.PerPage,
	}
}

// ListAssignments returns the published, non-quiz assignments of a course.
func (c *Client) ListAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	path := fmt.Sprintf("/api/v1/courses/%s/assignments", url.PathEscape(courseID))

	var out []Assignment
	err := c.getPaginated(ctx, path, nil, func(page []byte) error {
		var raw []assignmentJSON
		if err := json.Unmarshal(page, &raw); err != nil {
			return fmt.Errorf("decode assignments: %w", err)
		}
		for _, aj := range raw {
			a, err := aj.toAssignment()
			if err != nil {
				return err
			}
			if a.Published && !a.IsQuiz() {
				out = append(out, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListSubmissions returns all submissions for an assignment, including
// the full version history, aggregated across all pages.
func (c *Client) ListSubmissions(ctx context.Context, courseID string, assignmentID int64) ([]Submission, error) {
	path := fmt.Sprintf("/api/v1/courses/%s/assignments/%d/submissions",
		url.PathEscape(courseID), assignmentID)
	params := url.Values{"include[]": []string{"submission_history", "user"}}

	var out []Submission
	err := c.getPaginated(ctx, path, params, func(page []byte) error {
		var raw []submissionJSON
		if err := json.Unmarshal(page, &raw); err != nil {
			return fmt.Errorf("decode submissions: %w", err)
		}
		for _, sj := range raw {
			s, err := sj.toSubmission()
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchAttachment streams the bytes of an attachment URL. The caller must
// close the returned body.
func (c *Client) FetchAttachment(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	}

	return resp.Body, nil
}

// getPaginated fetches a listing endpoint and every subsequent page,
// following RFC 5988 Link headers until exhausted. Each page body is
// handed to the decode callback.
func (c *Client) getPaginated(ctx context.Context, path string, params url.Values, decode func([]byte) error) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("per_page", fmt.Sprint(c.perPage))
	next := c.baseURL + path + "?" + params.Encode()

	for next != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}

		if err := checkStatusCode(resp.StatusCode); err != nil {
			resp.Body.Close()
			return err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: read page: %v", ErrTransient, err)
		}

		if err := decode(body); err != nil {
			return err
		}

		next = parseNextLink(resp.Header.Get("Link"))
	}

	return nil
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: status %d", ErrTransient, code)
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}

// parseNextLink extracts the rel="next" URL from a Link header.
// Format: <url>; rel="current", <url>; rel="next", ...
func parseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		u := strings.TrimSpace(section[0])
		u = strings.TrimPrefix(u, "<")
		u = strings.TrimSuffix(u, ">")
		return u
	}
	return ""
}
