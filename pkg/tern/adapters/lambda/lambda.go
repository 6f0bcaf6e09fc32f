// Package lambda wraps AWS Lambda handlers with error reporting. Each
// invocation gets its own client bound to the triggering request, panics and
// returned errors are captured, and deliveries that outlive the response are
// awaited before the invocation is allowed to retire.
package lambda

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/strongdm/tern/pkg/tern"
)

// defaultFlushTimeout bounds how long an invocation may linger after the
// response is ready, waiting on event deliveries.
const defaultFlushTimeout = 2 * time.Second

// Options configures the Lambda wrappers.
type Options struct {
	// ClientOptions configures the per-invocation client. Its WaitUntil is
	// managed by the wrapper and must be left unset.
	ClientOptions tern.Options

	// Repanic re-raises a captured panic after reporting, letting the
	// runtime record the crash. When false the wrapper converts the panic
	// into a 500 response (API Gateway) or an error return (scheduled).
	Repanic bool

	// FlushTimeout bounds the post-response wait for in-flight deliveries.
	// Zero selects the default of two seconds.
	FlushTimeout time.Duration
}

func (o *Options) flushTimeout() time.Duration {
	if o.FlushTimeout > 0 {
		return o.FlushTimeout
	}
	return defaultFlushTimeout
}

// invocationExtender collects the completion channels of deliveries started
// during one invocation so the wrapper can hold the invocation open until
// they settle.
type invocationExtender struct {
	mu      sync.Mutex
	pending []<-chan struct{}
}

func (e *invocationExtender) waitUntil(done <-chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, done)
}

// wait blocks until every registered delivery settles or the timeout
// elapses, whichever comes first. The timeout covers the whole batch.
func (e *invocationExtender) wait(timeout time.Duration) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		e.mu.Lock()
		if len(e.pending) == 0 {
			e.mu.Unlock()
			return
		}
		next := e.pending[0]
		e.pending = e.pending[1:]
		e.mu.Unlock()

		select {
		case <-next:
		case <-deadline.C:
			return
		}
	}
}

// APIGatewayHandler is the handler signature wrapped by
// WrapAPIGatewayHandler.
type APIGatewayHandler func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// WrapAPIGatewayHandler returns a handler that reports panics and returned
// errors for each invocation. The per-invocation client is reachable from
// handler code via tern.FromContext.
func WrapAPIGatewayHandler(handler APIGatewayHandler, options Options) APIGatewayHandler {
	return func(ctx context.Context, request events.APIGatewayProxyRequest) (response events.APIGatewayProxyResponse, err error) {
		ext := &invocationExtender{}
		client := newInvocationClient(options, ext, requestFromAPIGateway(request))
		ctx = tern.NewContext(ctx, client)

		defer func() {
			if r := recover(); r != nil {
				client.CaptureException(r)
				ext.wait(options.flushTimeout())
				if options.Repanic {
					panic(r)
				}
				response = events.APIGatewayProxyResponse{
					StatusCode: http.StatusInternalServerError,
					Body:       http.StatusText(http.StatusInternalServerError),
				}
				err = nil
			}
		}()

		response, err = handler(ctx, request)
		if err != nil {
			client.CaptureException(err)
		}
		ext.wait(options.flushTimeout())
		return response, err
	}
}

// ScheduledHandler is the handler signature wrapped by
// WrapScheduledHandler.
type ScheduledHandler func(ctx context.Context, event events.CloudWatchEvent) error

// WrapScheduledHandler returns a handler for scheduled (cron) invocations
// that reports panics and returned errors. Pair it with CaptureCheckIn in
// the handler body to monitor the schedule itself.
func WrapScheduledHandler(handler ScheduledHandler, options Options) ScheduledHandler {
	return func(ctx context.Context, event events.CloudWatchEvent) (err error) {
		ext := &invocationExtender{}
		client := newInvocationClient(options, ext, nil)
		client.SetTag("schedule_source", event.Source)
		ctx = tern.NewContext(ctx, client)

		defer func() {
			if r := recover(); r != nil {
				client.CaptureException(r)
				ext.wait(options.flushTimeout())
				if options.Repanic {
					panic(r)
				}
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		err = handler(ctx, event)
		if err != nil {
			client.CaptureException(err)
		}
		ext.wait(options.flushTimeout())
		return err
	}
}

func newInvocationClient(options Options, ext *invocationExtender, request *tern.Request) *tern.Client {
	clientOptions := options.ClientOptions
	clientOptions.WaitUntil = ext.waitUntil
	if request != nil {
		clientOptions.Request = request
	}
	return tern.NewClient(clientOptions)
}

// requestFromAPIGateway converts an API Gateway proxy request into the
// reporting request context.
func requestFromAPIGateway(request events.APIGatewayProxyRequest) *tern.Request {
	rawURL := request.Path
	if query := encodeQuery(request.QueryStringParameters); query != "" {
		rawURL += "?" + query
	}
	if host := request.Headers["Host"]; host != "" {
		rawURL = "https://" + host + rawURL
	}
	return tern.RequestFromValues(request.HTTPMethod, rawURL, request.Headers)
}

// encodeQuery rebuilds the query string with proper escaping, so parameter
// values containing metacharacters survive the round trip. Keys come out in
// sorted order.
func encodeQuery(params map[string]string) string {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	return values.Encode()
}
