package s3store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodestore/internal/domain/services"
)

// stubS3 answers the handful of path-style S3 calls the store makes
type stubS3 struct {
	mu       sync.Mutex
	bucket   string
	objects  map[string]bool
	requests []string
}

func newStubS3(keys ...string) *stubS3 {
	s := &stubS3{bucket: "files", objects: map[string]bool{}}
	for _, k := range keys {
		s.objects[k] = true
	}
	return s
}

func (s *stubS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/"+s.bucket), "/")

	switch {
	case r.Method == http.MethodHead:
		if !s.objects[key] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", "5")
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		s.writeListing(w, r.URL.Query().Get("prefix"))

	case r.Method == http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		s.objects[key] = true
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete:
		delete(s.objects, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (s *stubS3) writeListing(w http.ResponseWriter, prefix string) {
	var keys []string
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var contents, common strings.Builder
	seen := map[string]bool{}
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			cp := prefix + rest[:i+1]
			if !seen[cp] {
				seen[cp] = true
				fmt.Fprintf(&common, "<CommonPrefixes><Prefix>%s</Prefix></CommonPrefixes>", cp)
			}
			continue
		}
		fmt.Fprintf(&contents, "<Contents><Key>%s</Key><LastModified>2024-01-02T03:04:05.000Z</LastModified><Size>5</Size><StorageClass>STANDARD</StorageClass></Contents>", k)
	}

	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>%s</Name><Prefix>%s</Prefix><Delimiter>/</Delimiter><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>%s%s</ListBucketResult>`,
		s.bucket, prefix, contents.String(), common.String())
}

func (s *stubS3) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *stubS3) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:               endpoint,
		Region:                 "us-east-1",
		Bucket:                 "files",
		UsePathStyle:           true,
		AccessKeyID:            "std",
		SecretAccessKey:        "std-secret",
		ServiceAccessKeyID:     "svc",
		ServiceSecretAccessKey: "svc-secret",
		RetryMaxAttempts:       1,
	}
}

func newTestStore(t *testing.T, stub *stubS3, capability services.StorageCapability) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), testConfig(srv.URL), capability, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store, srv
}

func TestNew_ElevatedRequiresServiceCredentials(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.ServiceAccessKeyID = ""

	_, err := New(context.Background(), cfg, services.CapabilityElevated, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)

	_, err = New(context.Background(), cfg, services.CapabilityStandard, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, err)
}

func TestNew_RequiresBucket(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Bucket = ""

	_, err := New(context.Background(), cfg, services.CapabilityStandard, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestSignedReadURL(t *testing.T) {
	stub := newStubS3("P/n1/blob")
	store, srv := newTestStore(t, stub, services.CapabilityStandard)

	url, err := store.SignedReadURL(context.Background(), "P/n1/blob", time.Hour)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, srv.URL+"/files/P/n1/blob?"), url)
	assert.Contains(t, url, "X-Amz-Expires=3600")
	assert.Contains(t, url, "X-Amz-Credential=std%2F")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Equal(t, []string{"HEAD /files/P/n1/blob"}, stub.calls())
}

func TestSignedReadURL_MissingObject(t *testing.T) {
	stub := newStubS3()
	store, _ := newTestStore(t, stub, services.CapabilityStandard)

	url, err := store.SignedReadURL(context.Background(), "P/n1/blob", time.Hour)

	assert.Error(t, err)
	assert.Empty(t, url)
}

func TestSignedUploadURL(t *testing.T) {
	stub := newStubS3()
	store, srv := newTestStore(t, stub, services.CapabilityElevated)

	before := time.Now()
	up, err := store.SignedUploadURL(context.Background(), "P/n1/blob", "text/plain", 2*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "P/n1/blob", up.Key)
	assert.True(t, strings.HasPrefix(up.URL, srv.URL+"/files/P/n1/blob?"), up.URL)
	assert.Contains(t, up.URL, "X-Amz-Expires=7200")
	assert.Contains(t, up.URL, "X-Amz-Credential=svc%2F")
	assert.Contains(t, up.URL, "content-type")
	assert.WithinDuration(t, before.Add(2*time.Hour), up.ExpiresAt, time.Minute)
	assert.Empty(t, stub.calls(), "presigning is offline")
}

func TestList(t *testing.T) {
	stub := newStubS3("P/n1/blob", "P/n1/old_abc.txt", "P/n1/uploads/u-1", "P/n2/blob", "P/n10/blob")
	store, _ := newTestStore(t, stub, services.CapabilityStandard)

	entries, err := store.List(context.Background(), "P/n1")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		assert.Equal(t, int64(5), e.Size)
	}
	assert.Equal(t, []string{"blob", "old_abc.txt"}, names)
}

func TestList_Empty(t *testing.T) {
	store, _ := newTestStore(t, newStubS3("Q/x/blob"), services.CapabilityStandard)

	entries, err := store.List(context.Background(), "P/n1/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDelete(t *testing.T) {
	t.Run("standard capability is refused locally", func(t *testing.T) {
		stub := newStubS3("P/n1/blob")
		store, _ := newTestStore(t, stub, services.CapabilityStandard)

		err := store.Delete(context.Background(), "P/n1/blob")

		assert.ErrorIs(t, err, ErrCapability)
		assert.Empty(t, stub.calls())
		assert.True(t, stub.has("P/n1/blob"))
	})

	t.Run("elevated capability deletes", func(t *testing.T) {
		stub := newStubS3("P/n1/blob")
		store, _ := newTestStore(t, stub, services.CapabilityElevated)

		err := store.Delete(context.Background(), "P/n1/blob")

		require.NoError(t, err)
		assert.False(t, stub.has("P/n1/blob"))
		assert.Equal(t, []string{"DELETE /files/P/n1/blob"}, stub.calls())
	})
}

func TestPut(t *testing.T) {
	stub := newStubS3()
	store, _ := newTestStore(t, stub, services.CapabilityElevated)

	err := store.Put(context.Background(), "P/n1/blob", "text/plain", []byte("hello"))

	require.NoError(t, err)
	assert.True(t, stub.has("P/n1/blob"))
}
