// Package health implements the sync-status probe (§4.D) that the
// reconciler's HealthCheck state uses to decide whether a StellarNode's
// workload is caught up with the network. It is grounded on the
// availability-prober's http.Client probing pattern, simplified from an
// infinite retry loop into a single bounded call: the reconciler itself owns
// retry timing via requeue, not the probe.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stellar-k8s/stellar-node-operator/internal/metrics"
)

// Timeout bounds a single probe attempt; the reconciler never retries within
// a call, it simply requeues (§4.D: "no retries").
const Timeout = 60 * time.Second

// Verdict is the outcome of probing a node's sync status.
type Verdict string

const (
	Healthy   Verdict = "Healthy"
	Unhealthy Verdict = "Unhealthy"
	Unknown   Verdict = "Unknown"
)

// Report is the result of a single probe attempt.
type Report struct {
	Verdict        Verdict
	LedgerSequence int64
	Reason         string
}

// syncResponse mirrors stellar-core's /info sync-status payload shape closely
// enough for the fields this operator needs.
type syncResponse struct {
	Info struct {
		Synced         bool  `json:"is_synced"`
		LedgerSequence int64 `json:"ledger_seq"`
		State          string `json:"state"`
	} `json:"info"`
}

// Prober probes a single node endpoint for sync status. It takes no action
// beyond the HTTP call: no mutation of any kind, matching §4.D's "a probe is a
// pure read."
type Prober struct {
	client *http.Client
}

// NewProber builds a Prober with the fixed Timeout budget.
func NewProber() *Prober {
	return &Prober{client: &http.Client{Timeout: Timeout}}
}

// Probe fetches url (expected to be "http://<service>:11626/info") and
// interprets the response. A transport error, timeout, or malformed body
// yields Unknown, since those say nothing about the node itself; a non-2xx
// response or a synced=false body yields Unhealthy, since the node answered
// and reported (or implied) a fault.
func (p *Prober) Probe(ctx context.Context, url string) Report {
	start := time.Now()
	report := p.probe(ctx, url)
	metrics.HealthProbeDuration.Observe(time.Since(start).Seconds())
	metrics.HealthProbeResult.WithLabelValues(string(report.Verdict)).Inc()
	return report
}

func (p *Prober) probe(ctx context.Context, url string) Report {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Report{Verdict: Unknown, Reason: fmt.Sprintf("building request: %v", err)}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Report{Verdict: Unknown, Reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Report{Verdict: Unhealthy, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var body syncResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{Verdict: Unknown, Reason: fmt.Sprintf("decoding response: %v", err)}
	}

	if !body.Info.Synced {
		return Report{
			Verdict:        Unhealthy,
			LedgerSequence: body.Info.LedgerSequence,
			Reason:         fmt.Sprintf("node reports state %q", body.Info.State),
		}
	}

	return Report{Verdict: Healthy, LedgerSequence: body.Info.LedgerSequence}
}

// URL builds the sync-status endpoint address for the given service hostname.
func URL(serviceHost string) string {
	return fmt.Sprintf("http://%s:11626/info", serviceHost)
}
