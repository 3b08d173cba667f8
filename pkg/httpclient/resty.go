package httpclient

import (
	"context"
	"market-insight/pkg/logger"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type RestyClient struct {
	client *resty.Client
	log    *logger.Logger
}

type Option func(*resty.Client)

// WithRetry retries a request up to count more times when it fails at the
// transport level or the server answers 429 or 5xx.
func WithRetry(count int, wait, maxWait time.Duration) Option {
	return func(c *resty.Client) {
		if count <= 0 {
			return
		}
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait).
			AddRetryCondition(func(resp *resty.Response, err error) bool {
				if err != nil || resp == nil {
					return true
				}
				return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
			})
	}
}

func New(log *logger.Logger, baseURL string, timeout time.Duration, bearerToken string, opts ...Option) HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if bearerToken != "" {
		client.SetAuthToken(bearerToken)
	}
	for _, opt := range opts {
		opt(client)
	}

	return &RestyClient{client: client, log: log}
}

// Get decodes a 2xx JSON body into result. Non-2xx responses are returned
// with their raw body and no error.
func (rc *RestyClient) Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().SetContext(ctx).SetResult(result)

	if queryParams != nil {
		req.SetQueryParams(queryParams)
	}

	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(endpoint)
	return rc.toBaseResponse(ctx, resp, err)
}

func (rc *RestyClient) toBaseResponse(ctx context.Context, resp *resty.Response, err error) (*BaseResponse, error) {
	if resp == nil {
		return &BaseResponse{}, err
	}
	rc.log.DebugContext(ctx, "HTTP request completed",
		logger.StringField("url", resp.Request.URL),
		logger.IntField("status_code", resp.StatusCode()),
		logger.IntField("attempts", resp.Request.Attempt),
		logger.Field("duration", resp.Time()),
	)
	return &BaseResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Headers:    resp.Header(),
	}, err
}
