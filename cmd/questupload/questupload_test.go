package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"quest-go/internal/apitypes"
	"quest-go/internal/curriculum"
	"quest-go/internal/uploader"
)

func init() {
	color.NoColor = true
}

func fakeCurriculum(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/curriculum/quests/3/attachments":
			_ = json.NewEncoder(w).Encode([]apitypes.Attachment{{ID: 1, FileName: "syllabus.pdf", FileType: "application/pdf", FileSize: 2048}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/curriculum/upload":
			file, header, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer file.Close()
			if header.Filename == "bad.txt" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"disk full"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(apitypes.Attachment{
				ID: 2, FileName: header.Filename, FileType: header.Header.Get("Content-Type"),
				FileSize: header.Size, UploadedAt: time.Now(),
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestRunUploadReportsEachFile(t *testing.T) {
	srv := fakeCurriculum(t)
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "notes.txt", []byte("hello quest")),
		writeFile(t, dir, "bad.txt", []byte("boom")),
		writeFile(t, dir, "blob.bin", []byte{0, 1, 2, 3}),
		filepath.Join(dir, "missing.pdf"),
	}

	var out bytes.Buffer
	client := curriculum.NewClientWithHTTP(srv.URL, "tok", srv.Client())
	failed, err := runUpload(context.Background(), &out, client, uploader.DefaultPolicy(), 3, paths)
	require.NoError(t, err)
	require.Equal(t, 3, failed)

	text := out.String()
	require.Contains(t, text, "notes.txt uploaded")
	require.Contains(t, text, "disk full")
	require.Contains(t, text, "File type not supported: blob.bin")
	require.Contains(t, text, "missing.pdf")
	require.Contains(t, text, "quest 3 now has 2 attachment(s)")
}

func TestRunUploadFailsWhenListFails(t *testing.T) {
	srv := fakeCurriculum(t)
	client := curriculum.NewClientWithHTTP(srv.URL, "", srv.Client())
	_, err := runUpload(context.Background(), &bytes.Buffer{}, client, uploader.DefaultPolicy(), 99, []string{"x.pdf"})
	require.Error(t, err)
}

func TestProgressPrinterSkipsRepeats(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)
	p.print([]uploader.ProgressEntry{{ID: "a", FileName: "a.pdf", Percent: 0}})
	p.print([]uploader.ProgressEntry{{ID: "a", FileName: "a.pdf", Percent: 0}})
	p.print([]uploader.ProgressEntry{{ID: "a", FileName: "a.pdf", Percent: 50}, {ID: "b", FileName: "a.pdf", Percent: 0}})
	p.print(nil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "50%")
	require.Empty(t, p.last)
}

func TestWatchURL(t *testing.T) {
	u, err := watchURL("ws://localhost:8080/", 12, "abc")
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8080/ws/quests/12?token=abc", u)

	u, err = watchURL("wss://notify.example.com/base", 1, "")
	require.NoError(t, err)
	require.Equal(t, "wss://notify.example.com/base/ws/quests/1", u)
}

func TestFormatEvent(t *testing.T) {
	ev := apitypes.AttachmentEvent{
		Type:       apitypes.AttachmentDeleted,
		QuestID:    4,
		Attachment: apitypes.Attachment{ID: 9, FileName: "map.png", FileType: "image/png", FileSize: 1536},
		Timestamp:  time.Now(),
	}
	line := formatEvent(ev)
	require.Contains(t, line, "- [9]")
	require.Contains(t, line, "map.png")
	require.Contains(t, line, "1.5 KB")
	require.Contains(t, line, string(uploader.IconImage))
}
