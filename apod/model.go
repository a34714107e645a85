package apod

import (
	"time"

	"github.com/pkg/errors"
)

// Record is one day's APOD payload. Date, Title, MediaType and URL are
// required; HDURL and Copyright are optional and empty when absent.
type Record struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
}

// ImageURL prefers the HD variant when the API provides one.
func (r Record) ImageURL() string {
	if len(r.HDURL) > 0 {
		return r.HDURL
	}
	return r.URL
}

func (r Record) validate() error {
	required := map[string]string{
		"date":       r.Date,
		"title":      r.Title,
		"media_type": r.MediaType,
		"url":        r.URL,
	}
	for field, value := range required {
		if len(value) == 0 {
			return errors.Wrapf(ErrMalformedRecord, "missing field %v", field)
		}
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return errors.Wrapf(ErrMalformedRecord, "bad date %v", r.Date)
	}
	return nil
}
