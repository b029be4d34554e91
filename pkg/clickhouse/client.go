package clickhouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/ethpandaops/ga4ch/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Define static errors
var (
	ErrDestMustBePointerToSlice = errors.New("dest must be a pointer to a slice")
	ErrClickHouseResponse       = errors.New("clickhouse error")
)

const maxLoggedQueryLength = 500

// clickhouseResponse represents the JSON response from ClickHouse HTTP interface.
type clickhouseResponse struct {
	Data []json.RawMessage `json:"data"`
	Meta []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"meta"`
	Rows     int `json:"rows"`
	RowsRead int `json:"rows_read"` //nolint:tagliatelle // ClickHouse API uses snake_case
}

// ClientInterface defines the methods for interacting with ClickHouse
type ClientInterface interface {
	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, dest interface{}) error
	// QueryMany executes a query and returns multiple results
	QueryMany(ctx context.Context, query string, dest interface{}) error
	// Execute runs a statement and returns the raw response body
	Execute(ctx context.Context, query string) ([]byte, error)
	// Start initializes the client
	Start() error
	// Stop closes the client
	Stop() error
}

// client implements the ClientInterface using HTTP
type client struct {
	log           logrus.FieldLogger
	httpClient    *http.Client
	baseURL       string
	username      string
	password      string
	database      string
	debug         bool
	queryTimeout  time.Duration
	insertTimeout time.Duration
}

// NewClient creates a new HTTP-based ClickHouse client
func NewClient(logger logrus.FieldLogger, cfg *Config) (ClientInterface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.SetDefaults()

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     cfg.KeepAlive,
		DisableKeepAlives:   false,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   0, // per-request timeouts come from the context
	}

	c := &client{
		log:           logger.WithField("component", "clickhouse-http"),
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		username:      cfg.Username,
		password:      cfg.Password,
		database:      cfg.Database,
		debug:         cfg.Debug,
		queryTimeout:  cfg.QueryTimeout,
		insertTimeout: cfg.InsertTimeout,
	}

	return c, nil
}

func (c *client) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.Execute(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	c.log.Info("Connected to ClickHouse HTTP interface")

	return nil
}

func (c *client) Stop() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}

	c.log.Debug("Closed ClickHouse HTTP client")

	return nil
}

func (c *client) QueryOne(ctx context.Context, query string, dest interface{}) error {
	resp, err := c.executeHTTPRequest(ctx, query+" FORMAT JSON", c.getTimeout(ctx, "query"))
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}

	var result clickhouseResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(result.Data[0], dest); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return nil
}

func (c *client) QueryMany(ctx context.Context, query string, dest interface{}) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Slice {
		return ErrDestMustBePointerToSlice
	}

	resp, err := c.executeHTTPRequest(ctx, query+" FORMAT JSON", c.getTimeout(ctx, "query"))
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}

	var result clickhouseResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	sliceType := destValue.Elem().Type()
	elemType := sliceType.Elem()
	newSlice := reflect.MakeSlice(sliceType, len(result.Data), len(result.Data))

	for i, data := range result.Data {
		elem := reflect.New(elemType)
		if err := json.Unmarshal(data, elem.Interface()); err != nil {
			return fmt.Errorf("failed to unmarshal row %d: %w", i, err)
		}

		newSlice.Index(i).Set(elem.Elem())
	}

	destValue.Elem().Set(newSlice)

	return nil
}

func (c *client) Execute(ctx context.Context, query string) ([]byte, error) {
	operation := "query"
	if queryType(query) == "insert" {
		operation = "insert"
	}

	body, err := c.executeHTTPRequest(ctx, query, c.getTimeout(ctx, operation))
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	return body, nil
}

func (c *client) executeHTTPRequest(ctx context.Context, query string, timeout time.Duration) (body []byte, err error) {
	start := time.Now()
	qType := queryType(query)

	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}

		observability.RecordClickHouseQuery(qType, status, time.Since(start).Seconds())
	}()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain")

	if c.username != "" {
		req.Header.Set("X-ClickHouse-User", c.username)
		req.Header.Set("X-ClickHouse-Key", c.password)
	}

	if c.database != "" {
		req.Header.Set("X-ClickHouse-Database", c.database)
	}

	if c.debug {
		c.log.WithField("query", truncateQuery(query)).Debug("Executing ClickHouse query")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("Failed to close response body")
		}
	}()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Exception string `json:"exception"`
		}

		if jsonErr := json.Unmarshal(body, &errorResp); jsonErr == nil && errorResp.Exception != "" {
			return nil, fmt.Errorf("%w (status %d): %s", ErrClickHouseResponse, resp.StatusCode, errorResp.Exception)
		}

		return nil, fmt.Errorf("%w (status %d): %s", ErrClickHouseResponse, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if c.debug && len(body) < 1000 {
		c.log.WithField("response", string(body)).Debug("ClickHouse response")
	}

	return body, nil
}

func (c *client) getTimeout(ctx context.Context, operation string) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}

	switch operation {
	case "insert":
		return c.insertTimeout
	default:
		return c.queryTimeout
	}
}

// queryType returns the lower-cased leading keyword of a statement, used as a metric label.
func queryType(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}

	switch kw := strings.ToLower(fields[0]); kw {
	case "select", "insert", "create", "drop", "alter", "truncate":
		return kw
	default:
		return "other"
	}
}

// truncateQuery shortens a statement for logging.
func truncateQuery(query string) string {
	if len(query) <= maxLoggedQueryLength {
		return query
	}

	return query[:maxLoggedQueryLength] + "..."
}
