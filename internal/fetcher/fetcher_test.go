package fetcher

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reegis/coastdat-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestHTTPDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Retry: fastRetry()})
	rc, err := f.Download(context.Background(), srv.URL+"/file")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestHTTPDownloadRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Retry: fastRetry()})
	rc, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close()
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPDownloadNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Retry: fastRetry()})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load(), "404 must not be retried")
}

func TestDownloadToFileUsesTempFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("content"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "out.zip")
	f := NewHTTPFetcher(HTTPOptions{Retry: fastRetry()})
	n, err := f.DownloadToFile(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestDownloadIfMissing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "file.csv")
	f := NewHTTPFetcher(HTTPOptions{Retry: fastRetry()})

	written, err := f.DownloadIfMissing(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = f.DownloadIfMissing(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.False(t, written)
	assert.EqualValues(t, 1, calls.Load())
}

func TestStreamCSVWithHeader(t *testing.T) {
	input := "gid,lon,lat\n1, 9.5 ,53.5\n2,9.6,53.5\n"
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	assert.Equal(t, []string{"gid", "lon", "lat"}, <-headerCh)

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "9.5", "53.5"}, rows[0])
}

func TestStreamCSVSemicolonAndComments(t *testing.T) {
	input := "# comment\n1;2;3\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
		Comment:   '#',
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "2", "3"}, rows[0])
}

func writeZIP(t *testing.T, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractZIP(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"data/coastdat_2014.csv": "1,v_wind,5.5\n",
		"readme.txt":             "notes",
	})

	dest := t.TempDir()
	files, err := ExtractZIP(path, dest)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	csvPath, err := FindByExt(dest, ".csv")
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "1,v_wind,5.5\n", string(data))
}

func TestExtractZIPNeutralizesTraversal(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"../evil.txt": "nope",
	})

	dest := t.TempDir()
	files, err := ExtractZIP(path, dest)
	require.NoError(t, err)
	require.Len(t, files, 1)

	// The entry is flattened into the destination, never outside it.
	assert.Equal(t, filepath.Join(dest, "evil.txt"), files[0])
	_, err = os.Stat(filepath.Join(filepath.Dir(dest), "evil.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestFindByExtMissing(t *testing.T) {
	_, err := FindByExt(t.TempDir(), ".csv")
	require.Error(t, err)
}
