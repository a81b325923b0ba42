// Package portraits is a client for the Portraits SchoolBasicSurvey Web API.
package portraits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"portraits/internal/core/apperror"
	"portraits/pkg/logger"
)

var tracer = otel.Tracer("portraits/api")

// Endpoint names one SchoolBasicSurvey operation.
type Endpoint string

const (
	StudentFacultyStatus                     Endpoint = "getStudentFacultyStatus"
	CollegeUndergraduateStudentsDetail       Endpoint = "getCollegeUndergraduateStudentsDetail"
	GraduateStudentsDetail                   Endpoint = "getGraduateStudentsDetail"
	JuniorCollegeUndergraduateStudentsDetail Endpoint = "getJuniorCollegeUndergraduateStudentsDetail"
	ForeignStudent                           Endpoint = "getForeignStudent"
	StatusAfterGraduationGraduates           Endpoint = "getStatusAfterGraduationGraduates"
	StatusAfterGraduationJobs                Endpoint = "getStatusAfterGraduationJobs"
	SchoolFacilities                         Endpoint = "getSchoolFacilities"
)

// Endpoints lists every supported operation.
func Endpoints() []Endpoint {
	return []Endpoint{
		StudentFacultyStatus,
		CollegeUndergraduateStudentsDetail,
		GraduateStudentsDetail,
		JuniorCollegeUndergraduateStudentsDetail,
		ForeignStudent,
		StatusAfterGraduationGraduates,
		StatusAfterGraduationJobs,
		SchoolFacilities,
	}
}

// UniversityScoped reports whether the endpoint takes a 4-digit university ID
// rather than an organization ID.
func (e Endpoint) UniversityScoped() bool {
	switch e {
	case StudentFacultyStatus, JuniorCollegeUndergraduateStudentsDetail, SchoolFacilities:
		return true
	}
	return false
}

const (
	DefaultBaseURL  = "https://edit.portraits.niad.ac.jp/api/"
	DefaultVersion  = "v1"
	DefaultTimeout  = 30 * time.Second
	DefaultInterval = 500 * time.Millisecond

	surveyPath = "SchoolBasicSurvey/"
	maxBody    = 32 << 20
)

var accessKeyPattern = regexp.MustCompile(`^[^:/@]+$`)

// ValidateAccessKey rejects empty keys and keys containing ':', '/' or '@'.
func ValidateAccessKey(key string) error {
	if key == "" {
		return apperror.NewInvalidAccessKey("access key is empty; set PORTRAITS_ACCESS_KEY")
	}
	if !accessKeyPattern.MatchString(key) {
		return apperror.NewInvalidAccessKey("access key has an unexpected format")
	}
	return nil
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Version   string
	AccessKey string
	// Timeout bounds each request.
	Timeout time.Duration
	// Interval is the minimum spacing between requests. Zero disables pacing.
	Interval   time.Duration
	HTTPClient *http.Client
}

// Client calls the Portraits API. Requests are paced by a shared limiter,
// so one Client is safe for concurrent use and never exceeds its rate.
type Client struct {
	base      string
	accessKey string
	timeout   time.Duration
	limiter   *rate.Limiter
	http      *http.Client
}

// New validates the access key and builds a Client.
func New(cfg Config) (*Client, error) {
	if err := ValidateAccessKey(cfg.AccessKey); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}

	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		base:      base + strings.Trim(cfg.Version, "/") + "/" + surveyPath,
		accessKey: cfg.AccessKey,
		timeout:   cfg.Timeout,
		limiter:   limiter,
		http:      cfg.HTTPClient,
	}, nil
}

// Fetch calls one endpoint and returns the decoded envelope. A non-"0"
// STATUS fails with UPSTREAM_ERROR carrying ERROR_MSG. There are no retries.
func (c *Client) Fetch(ctx context.Context, endpoint Endpoint, year int, orgID string) (*Envelope, error) {
	ctx, span := tracer.Start(ctx, string(endpoint),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("portraits.year", year),
			attribute.String("portraits.orgid", orgID),
		))
	defer span.End()

	env, err := c.fetch(ctx, endpoint, year, orgID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug(ctx, "portraits request failed", "endpoint", endpoint, "orgid", orgID, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("portraits.records", env.Count()))
	return env, nil
}

// Content is Fetch followed by Envelope.Content.
func (c *Client) Content(ctx context.Context, endpoint Endpoint, year int, orgID string) (json.RawMessage, error) {
	env, err := c.Fetch(ctx, endpoint, year, orgID)
	if err != nil {
		return nil, err
	}
	return env.Content(), nil
}

func (c *Client) fetch(ctx context.Context, endpoint Endpoint, year int, orgID string) (*Envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("accesskey", c.accessKey)
	q.Set("year", strconv.Itoa(year))
	q.Set("orgid", orgID)
	reqURL := c.base + string(endpoint) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.NewUpstream(string(endpoint), "request failed").WithCause(redact(err, c.accessKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, apperror.NewUpstream(string(endpoint), "read response").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.NewUpstream(string(endpoint), fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperror.NewUpstream(string(endpoint), "invalid JSON response").WithCause(err)
	}
	if !env.OK() {
		msg := env.StatusList.Result.ErrorMsg
		if msg == "" {
			msg = "API returned status " + env.StatusList.Result.Status
		}
		return nil, apperror.NewUpstream(string(endpoint), msg).
			WithDetail("apiStatus", env.StatusList.Result.Status)
	}
	return &env, nil
}

// redact keeps the access key out of transport errors, which embed the URL.
func redact(err error, key string) error {
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, "***"))
}
