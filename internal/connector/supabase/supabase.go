package supabase

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mellaniegambe/timecard/internal/connector/httpclient"
)

const defaultTimeout = 30 * time.Second

// Supabase identifiers (buckets, tables) are restricted so they can be placed
// in URL paths without escaping surprises.
var identRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// Client talks to a Supabase project's Storage and PostgREST endpoints.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// New creates a Client for the project at baseURL (https://<ref>.supabase.co)
// authenticated with an anon or service key.
func New(baseURL, key string, opts ...httpclient.Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]httpclient.Option{
		httpclient.WithTimeout(defaultTimeout),
		httpclient.WithHeader("apikey", key),
	}, opts...)
	return &Client{
		baseURL: baseURL,
		http:    httpclient.New(baseURL, key, opts...),
	}
}

func validIdent(kind, name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("supabase: invalid %s name %q", kind, name)
	}
	return nil
}

// objectPath escapes each segment of an object key.
func objectPath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Upload stores body under bucket/name. With upsert false an existing object
// with the same name is an error.
func (c *Client) Upload(ctx context.Context, bucket, name, contentType string, body []byte, upsert bool) error {
	if err := validIdent("bucket", bucket); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("supabase: empty object name")
	}
	path := "/storage/v1/object/" + bucket + "/" + objectPath(name)
	headers := map[string]string{
		"x-upsert":      strconv.FormatBool(upsert),
		"cache-control": "3600",
	}
	if err := c.http.Post(ctx, path, contentType, body, headers, nil); err != nil {
		return fmt.Errorf("supabase: upload %s/%s: %w", bucket, name, err)
	}
	return nil
}

// PublicURL returns the public URL of an object in a public bucket.
func (c *Client) PublicURL(bucket, name string) string {
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + objectPath(name)
}

// Insert inserts row into table and decodes the inserted representation
// (a JSON array) into dest.
func (c *Client) Insert(ctx context.Context, table string, row any, dest any) error {
	if err := validIdent("table", table); err != nil {
		return err
	}
	headers := map[string]string{"Prefer": "return=representation"}
	if err := c.http.PostJSON(ctx, "/rest/v1/"+table, row, headers, dest); err != nil {
		return fmt.Errorf("supabase: insert %s: %w", table, err)
	}
	return nil
}

// SelectParams narrows a Select.
type SelectParams struct {
	Columns string            // default "*"
	Order   string            // e.g. "created_at.desc"
	Limit   int               // 0 means no limit
	Eq      map[string]string // column = value filters
}

// Select reads rows from table into dest (a pointer to a slice).
func (c *Client) Select(ctx context.Context, table string, params SelectParams, dest any) error {
	if err := validIdent("table", table); err != nil {
		return err
	}
	q := url.Values{}
	cols := params.Columns
	if cols == "" {
		cols = "*"
	}
	q.Set("select", cols)
	if params.Order != "" {
		q.Set("order", params.Order)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	for col, v := range params.Eq {
		if err := validIdent("column", col); err != nil {
			return err
		}
		q.Set(col, "eq."+v)
	}
	if err := c.http.GetJSON(ctx, "/rest/v1/"+table, q, dest); err != nil {
		return fmt.Errorf("supabase: select %s: %w", table, err)
	}
	return nil
}
