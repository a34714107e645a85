package apod

import "time"

const (
	// MediaTypeImage and MediaTypeVideo are the media types the APOD API
	// is documented to return. Anything else is passed through for the
	// composer to handle explicitly.
	MediaTypeImage = "image"
	MediaTypeVideo = "video"

	// DateLayout is the calendar-date format used by the APOD API and by
	// every date key derived from it.
	DateLayout = "2006-01-02"

	endpointURL  = "https://api.nasa.gov/planetary/apod"
	fetchTimeout = time.Second * 30
)
