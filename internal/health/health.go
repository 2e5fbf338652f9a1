// Package health issues post-deploy smoke probes against the deployment
// URLs recorded in the manifest. It is deliberately a dumb reachability
// check: one GET per path, a fixed timeout, no retries and no backoff.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProbeTimeout bounds a single probe request.
const ProbeTimeout = 30 * time.Second

// Probe paths per environment. Production additionally checks the
// authentication page.
var (
	PreviewPaths    = []string{"", "/api/health"}
	ProductionPaths = []string{"", "/api/health", "/sign-in"}
)

// ProbeResult records the outcome of one HTTP probe.
type ProbeResult struct {
	URL    string
	Status int // 0 on transport error or timeout
	Err    error
	OK     bool
}

// Report reduces a probe sequence to a failure count.
type Report struct {
	Results  []ProbeResult
	Failures int
}

// Healthy reports whether every probe passed.
func (r Report) Healthy() bool {
	return r.Failures == 0
}

// WriteFailures prints exactly one line per failed probe.
func (r Report) WriteFailures(w io.Writer) {
	for _, res := range r.Results {
		if res.OK {
			continue
		}
		if res.Err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", res.URL, res.Err)
		} else {
			fmt.Fprintf(w, "FAIL %s: status %d\n", res.URL, res.Status)
		}
	}
}

// Verifier issues probe sequences against a base URL.
type Verifier struct {
	client *http.Client
}

// NewVerifier creates a Verifier. Pass nil to use a default client with
// the fixed probe timeout.
func NewVerifier(client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: ProbeTimeout}
	}
	return &Verifier{client: client}
}

// Verify issues one GET per relative path against baseURL in order. Any
// non-2xx response or transport error counts as a probe failure.
func (v *Verifier) Verify(ctx context.Context, baseURL string, paths []string) Report {
	report := Report{}
	base := strings.TrimRight(baseURL, "/")

	for _, p := range paths {
		url := base + p
		result := ProbeResult{URL: url}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			result.Err = err
		} else {
			req.Header.Set("User-Agent", "stencil-verify")
			resp, doErr := v.client.Do(req)
			if doErr != nil {
				result.Err = doErr
			} else {
				result.Status = resp.StatusCode
				result.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		}

		if !result.OK {
			report.Failures++
		}
		report.Results = append(report.Results, result)
	}

	return report
}
