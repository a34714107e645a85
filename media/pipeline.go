// Package media downloads and prepares APOD pictures for posting.
package media

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	// AttachmentName is the fixed file name under which the processed
	// picture is attached to outbound messages.
	AttachmentName = "apod.png"

	// maxWidth bounds the processed picture; wider images are downscaled,
	// narrower ones are never upscaled.
	maxWidth = 1280

	// maxEncodedBytes is Discord's attachment ceiling for bots. Exceeding
	// it makes the send fail remotely, so the pipeline enforces it here
	// and lets the composer fall back to a link.
	maxEncodedBytes = 8000000

	downloadTimeout = time.Minute
)

// ErrTooLarge is returned when the re-encoded picture would not fit the
// attachment ceiling.
var ErrTooLarge = errors.New("encoded image exceeds the attachment size limit")

// Attachment is a processed picture ready to be attached to a message.
type Attachment struct {
	Name   string
	Bytes  []byte
	Width  int
	Height int
}

// Pipeline turns a source image URL into a bounded PNG attachment,
// archiving both the raw download and the processed result on disk.
type Pipeline struct {
	rawDir       string
	processedDir string
	client       *http.Client
}

func NewPipeline(rawDir, processedDir string) (*Pipeline, error) {
	for _, dir := range []string{rawDir, processedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "unable to create cache directory %v", dir)
		}
	}
	return &Pipeline{
		rawDir:       rawDir,
		processedDir: processedDir,
		client:       &http.Client{Timeout: downloadTimeout},
	}, nil
}

// Process downloads the picture, archives the raw bytes, downscales to
// the width bound preserving aspect ratio, re-encodes as PNG and
// enforces the attachment ceiling. The raw archive write happens before
// decoding, so undecodable downloads are still kept for inspection.
func (p *Pipeline) Process(ctx context.Context, imageURL, dateKey string) (*Attachment, error) {
	raw, err := p.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	p.archiveRaw(imageURL, raw)

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode image from %v", imageURL)
	}
	bounds := img.Bounds()
	logrus.Debugf("decoded %v image %vx%v", format, bounds.Dx(), bounds.Dy())

	img = downscale(img)

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, errors.Wrap(err, "unable to encode PNG")
	}
	if encoded.Len() > maxEncodedBytes {
		return nil, errors.Wrapf(ErrTooLarge, "%v bytes", encoded.Len())
	}
	p.archiveProcessed(dateKey, encoded.Bytes())

	bounds = img.Bounds()
	return &Attachment{
		Name:   AttachmentName,
		Bytes:  encoded.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func (p *Pipeline) download(ctx context.Context, imageURL string) ([]byte, error) {
	var raw []byte
	err := retry.Do(
		func() error {
			request, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "unable to build image request"))
			}
			response, err := p.client.Do(request)
			if err != nil {
				return errors.Wrapf(err, "unable to download image from %v", imageURL)
			}
			defer func() {
				if err := response.Body.Close(); err != nil {
					logrus.Warnf("error during closing image body: %v", err.Error())
				}
			}()
			code := response.StatusCode
			if code < 200 || code > 299 {
				statusErr := errors.Errorf("unexpected status %v downloading %v", code, imageURL)
				if code >= 500 {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}
			raw, err = io.ReadAll(response.Body)
			if err != nil {
				return errors.Wrap(err, "unable to read image body")
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logrus.Warnf("retrying image download (attempt %v): %v", n, err.Error())
		}),
	)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// archiveRaw keeps the original download under the source URL's
// basename. Best effort: a failed write never aborts the pipeline.
func (p *Pipeline) archiveRaw(imageURL string, raw []byte) {
	name := "image"
	if parsed, err := url.Parse(imageURL); err == nil {
		if base := path.Base(parsed.Path); base != "." && base != "/" {
			name = base
		}
	}
	rawPath := filepath.Join(p.rawDir, name)
	if err := os.WriteFile(rawPath, raw, 0644); err != nil {
		logrus.Warnf("unable to save raw image to %v: %v", rawPath, err.Error())
		return
	}
	logrus.Debugf("saved raw image to %v", rawPath)
}

// archiveProcessed keeps the encoded PNG keyed by date. Best effort.
func (p *Pipeline) archiveProcessed(dateKey string, encoded []byte) {
	pngPath := filepath.Join(p.processedDir, dateKey+".png")
	if err := os.WriteFile(pngPath, encoded, 0644); err != nil {
		logrus.Warnf("unable to save processed image to %v: %v", pngPath, err.Error())
		return
	}
	logrus.Debugf("saved resized PNG image to %v", pngPath)
}

func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return img
	}
	height := int(float64(maxWidth) / float64(bounds.Dx()) * float64(bounds.Dy()))
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	logrus.Debugf("resized image to %vx%v", maxWidth, height)
	return dst
}
