package health

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerify(t *testing.T) {
	t.Run("all_healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		v := NewVerifier(srv.Client())
		report := v.Verify(context.Background(), srv.URL, PreviewPaths)

		if !report.Healthy() {
			t.Errorf("Failures = %d, want 0", report.Failures)
		}
		if len(report.Results) != len(PreviewPaths) {
			t.Errorf("Results = %d probes, want %d", len(report.Results), len(PreviewPaths))
		}
	})

	t.Run("failure_count_matches_failing_probes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		v := NewVerifier(srv.Client())
		report := v.Verify(context.Background(), srv.URL, ProductionPaths)

		if report.Failures != 1 {
			t.Fatalf("Failures = %d, want 1", report.Failures)
		}
		if report.Healthy() {
			t.Error("Healthy() = true with failures")
		}

		// Exactly F failure lines are printed.
		var buf bytes.Buffer
		report.WriteFailures(&buf)
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 1 {
			t.Errorf("printed %d failure lines, want 1: %q", len(lines), buf.String())
		}
		if !strings.Contains(lines[0], "/api/health") {
			t.Errorf("failure line %q does not name the failing probe", lines[0])
		}
	})

	t.Run("transport_error_is_failure", func(t *testing.T) {
		// Point at a closed server so every probe fails at the transport level.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		url := srv.URL
		srv.Close()

		v := NewVerifier(nil)
		report := v.Verify(context.Background(), url, PreviewPaths)

		if report.Failures != len(PreviewPaths) {
			t.Errorf("Failures = %d, want %d", report.Failures, len(PreviewPaths))
		}
	})

	t.Run("redirect_status_is_failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusFound)
		}))
		defer srv.Close()

		client := srv.Client()
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		v := NewVerifier(client)
		report := v.Verify(context.Background(), srv.URL, []string{""})

		if report.Failures != 1 {
			t.Errorf("Failures = %d, want 1 (302 is not 2xx)", report.Failures)
		}
	})
}
