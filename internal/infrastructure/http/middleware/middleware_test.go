package middleware

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/holidaytable/planner/pkg/errors"
	"github.com/holidaytable/planner/test/testutils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func htmlHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	})
}

func TestNegotiateEncoding(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"gzip":               "gzip",
		"gzip, br":           "br",
		"br;q=0, gzip":       "gzip",
		"deflate":            "",
		"GZIP;q=0.5":         "gzip",
		"identity, br;q=0.1": "br",
	}
	for header, want := range tests {
		assert.Equal(t, want, negotiateEncoding(header), "header %q", header)
	}
}

func TestCompression(t *testing.T) {
	large := strings.Repeat("<p>Борщ і вареники</p>", 200)
	handler := Compression(DefaultCompressionConfig())(htmlHandler(large))

	t.Run("Brotli", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		req.Header.Set("Accept-Encoding", "gzip, br")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "br", rec.Header().Get("Content-Encoding"))
		plain, err := io.ReadAll(brotli.NewReader(rec.Body))
		require.NoError(t, err)
		assert.Equal(t, large, string(plain))
	})

	t.Run("Gzip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		plain, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, large, string(plain))
	})

	t.Run("SmallBody_ShouldPassThrough", func(t *testing.T) {
		small := Compression(DefaultCompressionConfig())(htmlHandler("<p>ok</p>"))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "br")
		rec := httptest.NewRecorder()

		small.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "<p>ok</p>", rec.Body.String())
	})

	t.Run("BinaryType_ShouldPassThrough", func(t *testing.T) {
		xlsx := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			_, _ = w.Write(bytes.Repeat([]byte{1}, 4096))
		}))
		req := httptest.NewRequest(http.MethodGet, "/shopping/export.xlsx", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()

		xlsx.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Len(t, rec.Body.Bytes(), 4096)
	})

	t.Run("StatusCode_ShouldBePreserved", func(t *testing.T) {
		h := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, large)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	})
}

func TestErrorHandler(t *testing.T) {
	m := New(zap.NewNop())
	router := gin.New()
	router.Use(m.RequestID(), m.Recovery(), m.ErrorHandler())
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperrors.NewNotFoundError("drink", "absinthe"))
	})
	router.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("disk on fire"))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	ha := testutils.NewHTTPAssertions(t)
	tests := []struct {
		path       string
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"/missing", http.StatusNotFound, apperrors.CodeNotFound},
		{"/plain", http.StatusInternalServerError, apperrors.CodeInternal},
		{"/panic", http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			ha.ErrorCode(rec.Code, rec.Body.Bytes(), tt.wantStatus, tt.wantCode)
			assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequestID_ShouldEchoIncomingHeader(t *testing.T) {
	m := New(zap.NewNop())
	router := gin.New()
	router.Use(m.RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(htmlHandler("x")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}
