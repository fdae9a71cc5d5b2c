package resthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fox-one/pkg/logger"
	"github.com/go-resty/resty/v2"
)

const (
	// headerKeyRequestID request id header key
	headerKeyRequestID = "X-Request-Id"
)

// StatusError non 2xx response
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Status, e.Body)
}

// New resty client sending json
func New(timeout time.Duration) *resty.Client {
	return resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Charset", "utf-8").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
}

// Request new resty request
func Request(ctx context.Context, client *resty.Client) *resty.Request {
	return client.R().SetContext(ctx)
}

// WithRequestID resty request with request id
func WithRequestID(ctx context.Context, client *resty.Client, requestID string) *resty.Request {
	return Request(ctx, client).SetHeader(headerKeyRequestID, requestID)
}

// Execute do network request, resp may be nil
func Execute(request *resty.Request, method, url string, body interface{}, resp interface{}) (int, error) {
	log := logger.FromContext(request.Context()).WithField("url", url)

	if body != nil {
		request = request.SetBody(body)
	}

	r, err := request.Execute(strings.ToUpper(method), url)
	if err != nil {
		log.WithError(err).Debugln("request failed")
		return 0, err
	}

	log.WithField("status", r.StatusCode()).Debugln("response")
	return r.StatusCode(), ParseResponse(r, resp)
}

// ParseResponse parse response
func ParseResponse(r *resty.Response, obj interface{}) error {
	//fail
	if !r.IsSuccess() {
		return &StatusError{Status: r.StatusCode(), Body: strings.TrimSpace(string(r.Body()))}
	}

	//success
	if obj != nil && len(r.Body()) > 0 {
		return json.Unmarshal(r.Body(), obj)
	}
	return nil
}
