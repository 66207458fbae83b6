package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentMime(t *testing.T) {
	tests := []struct {
		a    Attachment
		want string
	}{
		{Attachment{FileName: "WhatsApp.apk"}, "application/vnd.android.package-archive"},
		{Attachment{Path: "/tmp/x/clip.MP4"}, "video/mp4"},
		{Attachment{Kind: Audio, FileName: "song"}, "audio/mpeg"},
		{Attachment{FileName: "a.bin", MimeType: "text/plain"}, "text/plain"},
		{Attachment{}, "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Mime(), tt.a.Name())
	}
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "clip.mp4", (&Attachment{Path: "/tmp/clip.mp4"}).Name())
	assert.Equal(t, "file", (&Attachment{}).Name())
}
