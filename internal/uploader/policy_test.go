package uploader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"quest-go/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Len(t, p.AllowedTypes, 11)
	require.Equal(t, int64(25*1024*1024), p.MaxFileSize)

	for _, mimeType := range []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"image/jpeg", "image/png", "image/gif", "image/webp",
		"text/plain", "application/zip",
	} {
		require.True(t, p.Allows(mimeType), mimeType)
	}
	require.False(t, p.Allows("video/mp4"))
	require.False(t, p.Allows("text/plain; charset=utf-8"))
}

func TestPolicyCheckBoundary(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Check(File{Name: "max.zip", MimeType: "application/zip", Size: p.MaxFileSize}))

	err := p.Check(File{Name: "over.zip", MimeType: "application/zip", Size: p.MaxFileSize + 1})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, ReasonTooLarge, vErr.Reason)
	require.Equal(t, "over.zip", vErr.FileName)
	require.Contains(t, vErr.Message, "25.00 MB")
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.UploaderConfig{})
	require.Equal(t, DefaultPolicy(), p)

	p = PolicyFromConfig(config.UploaderConfig{AllowedTypes: []string{"text/csv"}, MaxFileSizeBytes: 1024})
	require.Equal(t, []string{"text/csv"}, p.AllowedTypes)
	require.Equal(t, int64(1024), p.MaxFileSize)
	require.Error(t, p.Check(File{Name: "a.csv", MimeType: "text/csv", Size: 2048}))
}
