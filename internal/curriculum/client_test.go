package curriculum

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quest-go/internal/apitypes"
	"quest-go/internal/uploader"
)

func TestUploadSendsMultipartAndReportsProgress(t *testing.T) {
	payload := make([]byte, 256<<10)
	for i := range payload {
		payload[i] = byte(i)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/curriculum/upload", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Greater(t, r.ContentLength, int64(len(payload)))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "42", r.FormValue("quest_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, `week "1".zip`, header.Filename)
		require.Equal(t, "application/zip", header.Header.Get("Content-Type"))
		got, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, payload, got)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(apitypes.Attachment{
			ID:         11,
			FileName:   header.Filename,
			FileType:   "application/zip",
			FileSize:   int64(len(got)),
			FileURL:    "/uploads/abc.zip",
			UploadedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		})
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL, "tok", srv.Client())

	var mu sync.Mutex
	var ticks [][2]int64
	att, err := c.Upload(context.Background(), 42, uploader.FileFromBytes(`week "1".zip`, "application/zip", payload), func(loaded, total int64) {
		mu.Lock()
		ticks = append(ticks, [2]int64{loaded, total})
		mu.Unlock()
	})
	require.NoError(t, err)
	require.Equal(t, uint(11), att.ID)
	require.Equal(t, int64(len(payload)), att.FileSize)
	require.Equal(t, "/uploads/abc.zip", att.FileURL)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, ticks)
	last := ticks[len(ticks)-1]
	require.Equal(t, last[1], last[0], "final tick should report the whole body")
	for i := 1; i < len(ticks); i++ {
		require.GreaterOrEqual(t, ticks[i][0], ticks[i-1][0])
	}
}

func TestUploadDecodesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"quest 不存在"}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL, "", srv.Client())
	_, err := c.Upload(context.Background(), 1, uploader.FileFromBytes("a.txt", "text/plain", []byte("hi")), nil)

	var apiErr *apitypes.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "quest 不存在", apiErr.Message)
}

func TestErrorWithoutJSONBodyHasEmptyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL, "", srv.Client())
	err := c.Delete(context.Background(), 3)

	var apiErr *apitypes.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Empty(t, apiErr.Message)
}

func TestDeleteAndList(t *testing.T) {
	var deletedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			deletedPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/api/curriculum/quests/5/attachments":
			_ = json.NewEncoder(w).Encode([]apitypes.Attachment{{ID: 1, FileName: "a.pdf"}, {ID: 2, FileName: "b.png"}})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL, "", srv.Client())
	require.NoError(t, c.Delete(context.Background(), 9))
	require.Equal(t, "/api/curriculum/attachments/9", deletedPath)

	list, err := c.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "b.png", list[1].FileName)
}

func TestLoginStoresToken(t *testing.T) {
	var seenAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			var req loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "ada", req.Username)
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "jwt-123"})
			return
		}
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL, "", srv.Client())
	token, err := c.Login(context.Background(), "ada", "secret")
	require.NoError(t, err)
	require.Equal(t, "jwt-123", token)

	require.NoError(t, c.Delete(context.Background(), 1))
	require.Equal(t, "Bearer jwt-123", seenAuth)
}

func TestUploadHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClientWithHTTP(srv.URL, "", srv.Client())

	done := make(chan error, 1)
	go func() {
		_, err := c.Upload(ctx, 1, uploader.FileFromBytes("a.txt", "text/plain", []byte("hi")), nil)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not return after cancellation")
	}
}
