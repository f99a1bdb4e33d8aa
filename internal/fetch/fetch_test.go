package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "HotUpdate/linux/1.0.0/1.1.0/bundle.zip"

func TestHTTP_Fetch(t *testing.T) {
	payload := []byte("archive bytes")
	var gotPath, gotUA, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	f, err := NewHTTP(server.URL+"/", WithHTTPClient(server.Client()), WithHeader("Authorization", "Bearer t"))
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "temp", "bundle.zip")
	require.NoError(t, f.Fetch(context.Background(), testKey, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "/"+testKey, gotPath)
	assert.Equal(t, "hotbundle-updater", gotUA)
	assert.Equal(t, "Bearer t", gotAuth)
}

func TestHTTP_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	f, err := NewHTTP(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "bundle.zip")
	err = f.Fetch(context.Background(), testKey, dst)
	assert.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "no file should be left behind")
}

func TestHTTP_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f, _ := NewHTTP(server.URL, WithHTTPClient(server.Client()))
	err := f.Fetch(context.Background(), testKey, filepath.Join(t.TempDir(), "a"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "502")
}

func TestDir_Fetch(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, filepath.FromSlash(testKey))
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("zip"), 0644))

	dst := filepath.Join(t.TempDir(), "bundle.zip")
	require.NoError(t, NewDir(root).Fetch(context.Background(), testKey, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "zip", string(data))

	err = NewDir(root).Fetch(context.Background(), "missing/bundle.zip", dst)
	assert.ErrorIs(t, err, ErrNotFound)

	err = NewDir(root).Fetch(context.Background(), "../outside", dst)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestWriteFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := filepath.Join(t.TempDir(), "out")
	_, err := writeFile(ctx, dst, bytes.NewReader([]byte("data")))
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

type fakeS3 struct {
	objects map[string][]byte
	calls   []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.calls = append(f.calls, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestS3_Fetch(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"bundles/" + testKey: []byte("from s3")}}
	f := NewS3FromClient(client, "bundles")

	dst := filepath.Join(t.TempDir(), "bundle.zip")
	require.NoError(t, f.Fetch(context.Background(), testKey, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "from s3", string(data))

	err = f.Fetch(context.Background(), "nope", dst)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"bundles/" + testKey, "bundles/nope"}, client.calls)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.Error(t, err)
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxElapsed: time.Second}
}

func TestRetrying_RecoversFromTransientErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var attempts int32
	flaky := Func(func(ctx context.Context, key, dst string) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("connection reset")
		}
		return os.WriteFile(dst, []byte("ok"), 0644)
	})

	dst := filepath.Join(t.TempDir(), "out")
	err := NewRetrying(flaky, fastPolicy(), logger).Fetch(context.Background(), testKey, dst)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Len(t, hook.Entries, 2)
}

func TestRetrying_NotFoundIsPermanent(t *testing.T) {
	var attempts int32
	missing := Func(func(ctx context.Context, key, dst string) error {
		atomic.AddInt32(&attempts, 1)
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	})

	err := NewRetrying(missing, fastPolicy(), nil).Fetch(context.Background(), testKey, "unused")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRetrying_GivesUp(t *testing.T) {
	failing := Func(func(ctx context.Context, key, dst string) error {
		return errors.New("timeout")
	})
	policy := RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxElapsed: 20 * time.Millisecond}

	err := NewRetrying(failing, policy, nil).Fetch(context.Background(), testKey, "unused")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	f, err := New(ctx, Source{Kind: KindHTTP, URL: "https://cdn.example.com/updates"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/updates/a/b.zip", f.(*HTTP).URL("a/b.zip"))

	f, err = New(ctx, Source{Kind: KindDir, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, f)

	_, err = New(ctx, Source{Kind: KindHTTP})
	assert.Error(t, err)
	_, err = New(ctx, Source{Kind: KindDir})
	assert.Error(t, err)
	_, err = New(ctx, Source{Kind: "ftp"})
	assert.Error(t, err)
}
