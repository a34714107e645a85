package bot

import (
	"apod-discord-bot/apod"
	"apod-discord-bot/media"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageRecord() apod.Record {
	return apod.Record{
		Date:        "2024-01-01",
		Title:       "T",
		Explanation: "E",
		MediaType:   apod.MediaTypeImage,
		URL:         "http://x/img.jpg",
	}
}

func TestComposeImageWithAttachment(t *testing.T) {
	attachment := &media.Attachment{Name: media.AttachmentName, Bytes: []byte{1, 2, 3}}
	embed := compose(imageRecord(), attachment)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "attachment://apod.png", embed.Image.URL)
	assert.Empty(t, embed.Fields)
	assert.Equal(t, "T", embed.Title)
	assert.Equal(t, "E", embed.Description)
	assert.Equal(t, embedColor, embed.Color)
}

func TestComposeImageFallsBackToLink(t *testing.T) {
	record := imageRecord()
	record.HDURL = "http://x/img_hd.jpg"
	embed := compose(record, nil)
	assert.Nil(t, embed.Image)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "Image Link", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "http://x/img_hd.jpg")
}

func TestComposeVideo(t *testing.T) {
	record := imageRecord()
	record.MediaType = apod.MediaTypeVideo
	record.URL = "http://x/video"
	embed := compose(record, nil)
	assert.Equal(t, "T (Video)", embed.Title)
	assert.Equal(t, "http://x/video", embed.URL)
	assert.Nil(t, embed.Image)
	assert.Empty(t, embed.Fields)
}

func TestComposeUnknownMediaType(t *testing.T) {
	record := imageRecord()
	record.MediaType = "other"
	embed := compose(record, nil)
	assert.Nil(t, embed.Image)
	assert.Empty(t, embed.URL)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "Link", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "http://x/img.jpg")
}

func TestComposeUnknownMediaTypeWithoutURL(t *testing.T) {
	record := imageRecord()
	record.MediaType = "other"
	record.URL = ""
	embed := compose(record, nil)
	assert.Empty(t, embed.Fields)
}

func TestComposeFooter(t *testing.T) {
	record := imageRecord()
	record.Copyright = " Some One "
	embed := compose(record, nil)
	assert.Equal(t, "© Some One | 2024-01-01 | Bot by lunar_sh", embed.Footer.Text)

	record.Copyright = ""
	embed = compose(record, nil)
	assert.Equal(t, "2024-01-01 | Bot by lunar_sh", embed.Footer.Text)
}

func TestComposeDefaultExplanation(t *testing.T) {
	record := imageRecord()
	record.Explanation = ""
	embed := compose(record, nil)
	assert.Equal(t, defaultExplanation, embed.Description)
}

func TestAttachmentFilesFreshReader(t *testing.T) {
	attachment := &media.Attachment{Name: media.AttachmentName, Bytes: []byte{1, 2, 3}}
	first := attachmentFiles(attachment)
	second := attachmentFiles(attachment)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotSame(t, first[0].Reader, second[0].Reader)
	assert.Nil(t, attachmentFiles(nil))
}
