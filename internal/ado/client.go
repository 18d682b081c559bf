package ado

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/logging"

	"golang.org/x/time/rate"
)

const (
	apiVersion = "7.0"

	// maxBatch is the service limit for ids per batch read.
	maxBatch = 200
)

var batchFields = strings.Join([]string{
	FieldID, FieldTitle, FieldType, FieldState, FieldProject, FieldAssignedTo, FieldCompletedWork,
}, ",")

// Client talks to the work item tracking REST API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second across all organizations.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client whose requests time out after timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetWorkItem fetches one item. It returns nil without error if the item
// does not exist.
func (c *Client) GetWorkItem(ctx context.Context, conn Connection, id int64) (*WorkItem, error) {
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems/%d?api-version=%s", conn.BaseURL, id, apiVersion)

	var res workItemResponse
	status, err := c.do(ctx, conn, "get work item", http.MethodGet, endpoint, "", nil, &res)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res.toWorkItem(), nil
}

// Query runs a WIQL query in the connection's project and returns up to top
// items in query order.
func (c *Client) Query(ctx context.Context, conn Connection, wiql string, top int) ([]*WorkItem, error) {
	if top <= 0 || top > maxBatch {
		top = maxBatch
	}

	endpoint := fmt.Sprintf("%s/%s/_apis/wit/wiql?$top=%d&api-version=%s",
		conn.BaseURL, url.PathEscape(conn.Project), top, apiVersion)

	var refs wiqlResponse
	if _, err := c.do(ctx, conn, "query work items", http.MethodPost, endpoint, "application/json", wiqlRequest{Query: wiql}, &refs); err != nil {
		return nil, err
	}
	if len(refs.WorkItems) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(refs.WorkItems))
	for i, ref := range refs.WorkItems {
		if i == top {
			break
		}
		ids = append(ids, strconv.FormatInt(ref.ID, 10))
	}

	return c.getBatch(ctx, conn, ids)
}

func (c *Client) getBatch(ctx context.Context, conn Connection, ids []string) ([]*WorkItem, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("fields", batchFields)
	query.Set("errorPolicy", "omit")
	query.Set("api-version", apiVersion)
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems?%s", conn.BaseURL, query.Encode())

	var batch batchResponse
	if _, err := c.do(ctx, conn, "get work items", http.MethodGet, endpoint, "", nil, &batch); err != nil {
		return nil, err
	}

	byID := make(map[int64]*WorkItem, len(batch.Value))
	for _, raw := range batch.Value {
		if raw.ID == 0 {
			continue // omitted by errorPolicy
		}
		byID[raw.ID] = raw.toWorkItem()
	}

	items := make([]*WorkItem, 0, len(byID))
	for _, id := range ids {
		n, _ := strconv.ParseInt(id, 10, 64)
		if item, ok := byID[n]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// UpdateCompletedWork sets CompletedWork to hours.
func (c *Client) UpdateCompletedWork(ctx context.Context, conn Connection, id int64, hours float64) error {
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems/%d?api-version=%s", conn.BaseURL, id, apiVersion)
	body := []patchOperation{{
		Op:    "add",
		Path:  "/fields/" + FieldCompletedWork,
		Value: hours,
	}}

	_, err := c.do(ctx, conn, "update work item", http.MethodPatch, endpoint, "application/json-patch+json", body, nil)
	return err
}

// do sends the request and decodes a 2xx body into out. It returns the HTTP
// status, or 0 if no response arrived.
func (c *Client) do(ctx context.Context, conn Connection, op, method, endpoint, contentType string, in, out interface{}) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, errors.NewRemoteError(op, 0, "rate limit wait aborted", err)
		}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, errors.NewRemoteError(op, 0, "error encoding request", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, errors.NewRemoteError(op, 0, "error creating request", err)
	}
	req.SetBasicAuth("", conn.Token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logging.Debugf("ado: %s %s\n", method, endpoint)
	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.NewRemoteError(op, 0, err.Error(), err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, errors.NewRemoteError(op, res.StatusCode, readErrorMessage(res), nil)
	}

	if out == nil {
		return res.StatusCode, nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return res.StatusCode, errors.NewRemoteError(op, res.StatusCode, "error decoding response", err)
	}
	return res.StatusCode, nil
}

// readErrorMessage extracts the service message, falling back to the status text.
func readErrorMessage(res *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))

	var errRes errorResponse
	if err := json.Unmarshal(raw, &errRes); err == nil && errRes.Message != "" {
		return errRes.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(res.StatusCode)
}
