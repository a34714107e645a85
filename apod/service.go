// Package apod talks to NASA's Astronomy Picture of the Day API.
package apod

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnexpectedStatus marks a non-2xx reply from the APOD endpoint.
	ErrUnexpectedStatus = errors.New("unexpected status from APOD API")
	// ErrMalformedRecord marks a reply that did not decode into a valid Record.
	ErrMalformedRecord = errors.New("malformed APOD record")
)

type Service struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewService(apiKey string) *Service {
	return NewServiceAt(apiKey, endpointURL)
}

// NewServiceAt points the client at an alternate endpoint, for mirrors
// and tests.
func NewServiceAt(apiKey, endpoint string) *Service {
	return &Service{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch issues one GET to the APOD endpoint and returns the decoded
// record. Transport errors and 5xx replies are retried a few times with
// jitter; 4xx replies and undecodable payloads are not.
func (s *Service) Fetch(ctx context.Context) (Record, error) {
	var record Record
	values := url.Values{}
	values.Set("api_key", s.apiKey)
	requestURL := fmt.Sprintf("%v?%v", s.endpoint, values.Encode())
	err := retry.Do(
		func() error {
			request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "unable to build APOD request"))
			}
			response, err := s.client.Do(request)
			if err != nil {
				return errors.Wrap(err, "unable to call APOD API")
			}
			defer func() {
				if err := response.Body.Close(); err != nil {
					logrus.Warnf("error during closing APOD body: %v", err.Error())
				}
			}()
			code := response.StatusCode
			if code < 200 || code > 299 {
				statusErr := errors.Wrapf(ErrUnexpectedStatus, "status %v", code)
				if code >= 500 {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}
			record = Record{}
			if err := json.NewDecoder(response.Body).Decode(&record); err != nil {
				return retry.Unrecoverable(errors.Wrapf(ErrMalformedRecord, "unable to decode APOD payload: %v", err.Error()))
			}
			if err := record.validate(); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logrus.Warnf("retrying APOD fetch after error (attempt %v): %v", n, err.Error())
		}),
	)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}
