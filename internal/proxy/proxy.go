// Package proxy reads the iron-claw proxy's /status endpoint and
// applies the token-budget gate. The proxy fronts the model API; when a
// RADIUS session is active it dictates the model and remaining budget.
package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"match-scraper-ops/internal/errdefs"
)

// Status is the /status payload. Bare mode (no RADIUS session) carries
// only the flag; a RADIUS session adds the budget fields.
type Status struct {
	NoRadiusSession bool    `json:"no_radius_session"`
	ModelAllowed    string  `json:"model_allowed"`
	TokensRemaining int     `json:"tokens_remaining"`
	BudgetPct       float64 `json:"budget_pct"`
	PolicyMode      string  `json:"policy_mode"`
}

// Client fetches proxy status. The base URL may include the /v1 API
// suffix; it is stripped before hitting /status.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client with the standard 5s status timeout.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

// StatusURL derives the /status endpoint from the configured base URL.
func (c *Client) StatusURL() string {
	base := strings.TrimRight(c.BaseURL, "/")
	return strings.Replace(base, "/v1", "", 1) + "/status"
}

// Fetch retrieves the current proxy status.
func (c *Client) Fetch() (*Status, error) {
	url := c.StatusURL()
	resp, err := c.HTTP.Get(url)
	if err != nil {
		return nil, errdefs.External(fmt.Sprintf("proxy unreachable at %s", url), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errdefs.External(fmt.Sprintf("proxy status at %s", url), fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errdefs.External("read proxy status", err)
	}
	var st Status
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, errdefs.External("decode proxy status", err)
	}
	return &st, nil
}

// Verdict is the outcome of the budget gate.
type Verdict struct {
	// Model the run should use: the RADIUS-allowed model when a
	// session is active, the configured one otherwise.
	Model string
	// Detail is operator-facing summary text.
	Detail string
	// BudgetLow is set when tokens remaining fell below the floor but
	// the proxy is in monitor mode, so the run may proceed.
	BudgetLow bool
}

// Gate applies the token-budget policy to a status. An exhausted budget
// under enforce mode returns an error; under monitor mode the verdict
// carries BudgetLow instead.
func Gate(st *Status, configuredModel string, minBudget int) (Verdict, error) {
	if st.NoRadiusSession {
		return Verdict{
			Model:  configuredModel,
			Detail: "bare mode, no radius session",
		}, nil
	}

	model := st.ModelAllowed
	if model == "" {
		model = configuredModel
	}
	if st.TokensRemaining < minBudget {
		if st.PolicyMode == "monitor" {
			return Verdict{
				Model:     model,
				Detail:    fmt.Sprintf("budget low: %d tokens remaining (floor %d), monitor mode", st.TokensRemaining, minBudget),
				BudgetLow: true,
			}, nil
		}
		return Verdict{}, errdefs.Probe("proxy token budget",
			fmt.Errorf("%d tokens remaining, %d required", st.TokensRemaining, minBudget))
	}
	return Verdict{
		Model:  model,
		Detail: fmt.Sprintf("model %s, %d tokens remaining (%.0f%% budget)", model, st.TokensRemaining, st.BudgetPct),
	}, nil
}
