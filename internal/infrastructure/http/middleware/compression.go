package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
)

// CompressionConfig configures compression behavior
type CompressionConfig struct {
	BrotliLevel       int
	GzipLevel         int
	MinSizeBytes      int
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		BrotliLevel:  5,
		GzipLevel:    gzip.DefaultCompression,
		MinSizeBytes: 1024,
		CompressibleTypes: []string{
			"text/html",
			"text/css",
			"text/plain",
			"text/javascript",
			"application/javascript",
			"application/json",
			"image/svg+xml",
		},
	}
}

// Compression buffers responses and compresses them with brotli or gzip
// depending on Accept-Encoding. Websocket upgrades pass through untouched.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	types := make(map[string]bool, len(cfg.CompressibleTypes))
	for _, t := range cfg.CompressibleTypes {
		types[t] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoding := negotiateEncoding(r.Header.Get("Accept-Encoding"))
			if encoding == "" || r.Method == http.MethodHead || isUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(bw, r)

			body := bw.buf.Bytes()
			h := w.Header()
			h.Add("Vary", "Accept-Encoding")

			if len(body) < cfg.MinSizeBytes || h.Get("Content-Encoding") != "" || !types[mediaType(h.Get("Content-Type"))] {
				w.WriteHeader(bw.status)
				_, _ = w.Write(body)
				return
			}

			compressed, err := compress(encoding, body, cfg)
			if err != nil {
				w.WriteHeader(bw.status)
				_, _ = w.Write(body)
				return
			}

			h.Set("Content-Encoding", encoding)
			h.Set("Content-Length", strconv.Itoa(len(compressed)))
			w.WriteHeader(bw.status)
			_, _ = w.Write(compressed)
		})
	}
}

// negotiateEncoding prefers br over gzip and honours q=0
func negotiateEncoding(header string) string {
	if header == "" {
		return ""
	}

	accepted := make(map[string]bool)
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}
		accepted[name] = q > 0
	}

	switch {
	case accepted["br"]:
		return "br"
	case accepted["gzip"]:
		return "gzip"
	default:
		return ""
	}
}

func compress(encoding string, body []byte, cfg CompressionConfig) ([]byte, error) {
	var buf bytes.Buffer
	var zw io.WriteCloser

	switch encoding {
	case "br":
		zw = brotli.NewWriterLevel(&buf, cfg.BrotliLevel)
	default:
		gz, err := gzip.NewWriterLevel(&buf, cfg.GzipLevel)
		if err != nil {
			return nil, err
		}
		zw = gz
	}

	if _, err := zw.Write(body); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

type bufferedWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", http.DetectContentType(p))
	}
	return w.buf.Write(p)
}
