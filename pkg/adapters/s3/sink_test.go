package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ReportSink = (*Sink)(nil)

type upload struct {
	path        string
	contentType string
	body        string
}

// fakeS3 accepts path-style PUT requests and records them.
func fakeS3(t *testing.T, status int) (*httptest.Server, func() []upload) {
	t.Helper()
	var (
		mu      sync.Mutex
		uploads []upload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Method == http.MethodPut {
			mu.Lock()
			uploads = append(uploads, upload{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: string(body)})
			mu.Unlock()
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []upload {
		mu.Lock()
		defer mu.Unlock()
		return append([]upload(nil), uploads...)
	}
}

func newTestClient(endpoint string) *s3.Client {
	return s3.New(s3.Options{
		Region:                     "us-east-1",
		BaseEndpoint:               aws.String(endpoint),
		UsePathStyle:               true,
		Credentials:                aws.AnonymousCredentials{},
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		RetryMaxAttempts:           1,
	})
}

func TestSink_Put(t *testing.T) {
	srv, uploads := fakeS3(t, http.StatusOK)
	sink := NewFromClient(newTestClient(srv.URL), "reports", "espalier/runs")

	err := sink.Put(context.Background(), "run-1/report.md", "text/markdown", []byte("# Report\n"))
	require.NoError(t, err)

	got := uploads()
	require.Len(t, got, 1)
	assert.Equal(t, "/reports/espalier/runs/run-1/report.md", got[0].path)
	assert.Equal(t, "text/markdown", got[0].contentType)
	assert.Equal(t, "# Report\n", got[0].body)
}

func TestSink_PutError(t *testing.T) {
	srv, _ := fakeS3(t, http.StatusForbidden)
	sink := NewFromClient(newTestClient(srv.URL), "reports", "")

	err := sink.Put(context.Background(), "summary.json", "application/json", []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary.json")
}

func TestSink_Key(t *testing.T) {
	assert.Equal(t, "a.md", NewFromClient(nil, "b", "").Key("a.md"))
	assert.Equal(t, "p/a.md", NewFromClient(nil, "b", "p/").Key("a.md"))
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), "", "", "us-east-1", "")
	assert.Error(t, err)
}
