package uploader

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileFromPathDetectsMimeType(t *testing.T) {
	dir := t.TempDir()
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	oleHeader := []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1, 0, 0}
	zipHeader := []byte{'P', 'K', 0x03, 0x04, 0x14, 0, 0, 0}

	cases := map[string]struct {
		content []byte
		want    string
	}{
		"syllabus.pdf": {[]byte("%PDF-1.7"), "application/pdf"},
		"readme.txt":   {[]byte("hello"), "text/plain"},
		"screenshot":   {pngHeader, "image/png"},
		"lecture.doc":  {oleHeader, "application/msword"},
		"lecture.DOCX": {zipHeader, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		"slides.ppt":   {oleHeader, "application/vnd.ms-powerpoint"},
		"slides.pptx":  {zipHeader, "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		"bundle.zip":   {zipHeader, "application/zip"},
		"photo.jpg":    {[]byte{0xff, 0xd8, 0xff, 0xe0}, "image/jpeg"},
		"anim.gif":     {[]byte("GIF89a"), "image/gif"},
		"cover.webp":   {[]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp"},
	}
	for name, tc := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, tc.content, 0o644))

		f, err := FileFromPath(path)
		require.NoError(t, err, name)
		require.Equal(t, name, f.Name)
		require.Equal(t, tc.want, f.MimeType, name)
		if filepath.Ext(name) != "" {
			require.True(t, DefaultPolicy().Allows(f.MimeType), name)
		}
		require.Equal(t, int64(len(tc.content)), f.Size)

		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		require.Equal(t, tc.content, data)
	}
}

func TestFileFromPathRejectsDirectory(t *testing.T) {
	_, err := FileFromPath(t.TempDir())
	require.Error(t, err)

	_, err = FileFromPath(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
