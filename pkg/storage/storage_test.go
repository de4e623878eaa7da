package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	k, err := CleanKey("/products/3/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "products/3/a.jpg", k)

	_, err = CleanKey("products/../../etc/passwd")
	assert.Error(t, err)
	_, err = CleanKey("")
	assert.Error(t, err)
}

func TestLocalDisk(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocal(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "products/1/front.jpg", strings.NewReader("jpeg"), "image/jpeg"))

	ok, err := d.Exists(ctx, "products/1/front.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := d.Get(ctx, "products/1/front.jpg")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "jpeg", string(b))

	assert.Equal(t, "http://localhost:8080/storage/products/1/front.jpg", d.URL("products/1/front.jpg"))

	rec := httptest.NewRecorder()
	d.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/1/front.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	d.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/1/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, d.Delete(ctx, "products/1/front.jpg"))
	require.NoError(t, d.Delete(ctx, "products/1/front.jpg"))
	_, err = d.Get(ctx, "products/1/front.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
	_, err = New(context.Background(), Config{Driver: "s3"})
	assert.Error(t, err)
}
