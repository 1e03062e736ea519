package services

import (
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

// Every outbound call carries this timeout; a slow provider fails the call
// rather than hanging the handler.
const outboundHTTPTimeout = 10 * time.Second

type ServiceHTTP struct{}

func (service *ServiceHTTP) httpClient(retries int) *httpclient.Client {
	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(outboundHTTPTimeout),
		httpclient.WithRetryCount(retries),
		httpclient.WithRetrier(heimdall.NewRetrier(heimdall.NewConstantBackoff(500*time.Millisecond, 100*time.Millisecond))),
	)
}
