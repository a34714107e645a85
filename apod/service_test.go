package apod

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewServiceAt("DEMO_KEY", server.URL)
}

func TestFetchDecodesRecord(t *testing.T) {
	service := newTestService(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "DEMO_KEY", request.URL.Query().Get("api_key"))
		_, err := writer.Write([]byte(`{
			"date": "2024-01-01",
			"title": "T",
			"explanation": "E",
			"media_type": "image",
			"url": "http://x/img.jpg",
			"hdurl": "http://x/img_hd.jpg",
			"copyright": " Some One "
		}`))
		require.NoError(t, err)
	})
	record, err := service.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", record.Date)
	assert.Equal(t, "T", record.Title)
	assert.Equal(t, "http://x/img_hd.jpg", record.ImageURL())
}

func TestFetchUnexpectedStatus(t *testing.T) {
	service := newTestService(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})
	_, err := service.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestFetchMalformedJSON(t *testing.T) {
	service := newTestService(t, func(writer http.ResponseWriter, _ *http.Request) {
		_, err := writer.Write([]byte("{not json"))
		require.NoError(t, err)
	})
	_, err := service.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
}

func TestFetchMissingRequiredField(t *testing.T) {
	service := newTestService(t, func(writer http.ResponseWriter, _ *http.Request) {
		_, err := writer.Write([]byte(`{"date": "2024-01-01", "title": "T", "media_type": "image"}`))
		require.NoError(t, err)
	})
	_, err := service.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
}

func TestImageURLPrefersHD(t *testing.T) {
	record := Record{URL: "http://x/img.jpg"}
	assert.Equal(t, "http://x/img.jpg", record.ImageURL())
	record.HDURL = "http://x/img_hd.jpg"
	assert.Equal(t, "http://x/img_hd.jpg", record.ImageURL())
}
