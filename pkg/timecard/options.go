package timecard

import "time"

type options struct {
	provider string
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	extra    map[string]string

	supabaseURL string
	supabaseKey string
	bucket      string
	table       string

	sqlDriver     string
	sqlDSN        string
	imagesDir     string
	imagesBaseURL string
}

// Option configures a Timecard.
type Option func(*options)

// WithHTTPExtractor posts images as multipart form data to endpoint.
func WithHTTPExtractor(endpoint string) Option {
	return func(o *options) {
		o.provider = "http"
		o.endpoint = endpoint
	}
}

// WithOpenAIExtractor uses an OpenAI-compatible vision model. An empty
// endpoint selects the public API.
func WithOpenAIExtractor(endpoint, apiKey, model string) Option {
	return func(o *options) {
		o.provider = "openai"
		o.endpoint = endpoint
		o.apiKey = apiKey
		o.model = model
	}
}

// WithAPIKey sets the bearer token sent to the extraction service.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithTimeout bounds each extraction request. Default: 2m.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithExtractorSetting passes a provider-specific setting, such as "field"
// for the HTTP extractor or "prompt" for OpenAI.
func WithExtractorSetting(key, value string) Option {
	return func(o *options) {
		if o.extra == nil {
			o.extra = map[string]string{}
		}
		o.extra[key] = value
	}
}

// WithSupabase saves images to Supabase Storage and records to its REST API.
func WithSupabase(url, key string) Option {
	return func(o *options) {
		o.supabaseURL = url
		o.supabaseKey = key
	}
}

// WithSupabaseNames overrides the storage bucket and table names.
// Defaults: timecards, timecard_results.
func WithSupabaseNames(bucket, table string) Option {
	return func(o *options) {
		o.bucket = bucket
		o.table = table
	}
}

// WithSQL saves records with gorm (driver "sqlite" or "postgres") and images
// to imagesDir, served under baseURL.
func WithSQL(driver, dsn, imagesDir, baseURL string) Option {
	return func(o *options) {
		o.sqlDriver = driver
		o.sqlDSN = dsn
		o.imagesDir = imagesDir
		o.imagesBaseURL = baseURL
	}
}
