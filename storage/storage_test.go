package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mygallery/config"
	"mygallery/errs"
)

func pngFile(name string) File {
	data := []byte("\x89PNG\r\n\x1a\nfake-image")
	return File{Name: name, ContentType: "image/png", Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func TestLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "uploads")
	backend := NewLocal(dir, "/uploads/")

	url, err := backend.Store(context.Background(), pngFile("Cat.PNG"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\nfake-image"), stored)

	other, err := backend.Store(context.Background(), pngFile("Cat.PNG"))
	require.NoError(t, err)
	assert.NotEqual(t, url, other)
}

func TestLocalStoreRejectsEmpty(t *testing.T) {
	backend := NewLocal(t.TempDir(), "/uploads")

	_, err := backend.Store(context.Background(), File{Name: "a.png"})
	assert.ErrorIs(t, err, errs.Storage)

	_, err = backend.Store(context.Background(), File{Name: "a.png", Body: strings.NewReader(""), Size: 0})
	assert.ErrorIs(t, err, errs.Storage)
}

func newImgBBServer(t *testing.T, handler http.HandlerFunc) (*ImgBB, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	backend := NewImgBB(config.ImgBBConfig{APIKey: "secret-api-key", Endpoint: srv.URL + "/1/upload"}, srv.Client(), zap.NewNop())
	return backend, &calls
}

func TestImgBBStore(t *testing.T) {
	backend, calls := newImgBBServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1/upload", r.URL.Path)
		assert.Equal(t, "secret-api-key", r.URL.Query().Get("key"))

		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "sunset.png", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte("\x89PNG\r\n\x1a\nfake-image"), data)
		assert.NotContains(t, r.MultipartForm.Value, "key", "key travels only in the query string")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"status":200,"data":{"id":"abc","url":"https://i.ibb.co/abc/sunset.png","display_url":"https://ibb.co/abc"}}`)
	})

	url, err := backend.Store(context.Background(), pngFile("sunset.png"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc/sunset.png", url)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestImgBBStoreFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadRequest, `{"status_code":400,"error":{"message":"Invalid API v1 key."}}`},
		{"malformed envelope", http.StatusOK, `<html>oops</html>`},
		{"missing url", http.StatusOK, `{"success":true,"data":{"id":"abc"}}`},
		{"unsuccessful", http.StatusOK, `{"success":false,"data":{"url":""},"error":{"message":"quota"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend, _ := newImgBBServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			_, err := backend.Store(context.Background(), pngFile("x.png"))
			assert.ErrorIs(t, err, errs.Storage)
		})
	}
}

func TestImgBBStoreEmptyInputMakesNoRequest(t *testing.T) {
	backend, calls := newImgBBServer(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := backend.Store(context.Background(), File{Name: "x.png"})
	assert.ErrorIs(t, err, errs.Storage)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestImgBBUnreachableDoesNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	backend := NewImgBB(config.ImgBBConfig{APIKey: "secret-api-key", Endpoint: endpoint}, nil, zap.NewNop())
	_, err := backend.Store(context.Background(), pngFile("x.png"))
	require.ErrorIs(t, err, errs.Storage)
	assert.NotContains(t, err.Error(), "secret-api-key")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "secr****", maskKey("secret-api-key"))
	assert.Equal(t, "****", maskKey("abc"))
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Store(t *testing.T) {
	putter := &fakePutter{}
	backend := &S3{
		client: putter,
		cfg:    config.S3Config{Bucket: "gallery", Endpoint: "http://minio:9000/", Region: "us-east-1"},
		log:    zap.NewNop(),
	}

	url, err := backend.Store(context.Background(), pngFile("bug.JPG"))
	require.NoError(t, err)
	require.NotNil(t, putter.in)
	assert.Equal(t, "gallery", *putter.in.Bucket)
	assert.True(t, strings.HasPrefix(*putter.in.Key, "photos/"))
	assert.True(t, strings.HasSuffix(*putter.in.Key, ".jpg"))
	assert.Equal(t, "image/png", *putter.in.ContentType)
	assert.Equal(t, "http://minio:9000/gallery/"+*putter.in.Key, url)

	putter.err = errors.New("access denied")
	_, err = backend.Store(context.Background(), pngFile("bug.jpg"))
	assert.ErrorIs(t, err, errs.Storage)
}

func TestS3ObjectURL(t *testing.T) {
	b := &S3{cfg: config.S3Config{Bucket: "gallery", Region: "eu-west-1"}}
	assert.Equal(t, "https://gallery.s3.eu-west-1.amazonaws.com/photos/a.png", b.objectURL("photos/a.png"))

	b.cfg.PublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/photos/a.png", b.objectURL("photos/a.png"))
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"}, zap.NewNop())
	assert.Error(t, err)

	b, err := New(context.Background(), config.StorageConfig{Driver: config.DriverLocal, Local: config.LocalStorageConfig{Dir: t.TempDir(), URLPrefix: "/uploads"}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "local", b.Name())
}
