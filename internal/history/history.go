// Package history keeps an append-only ledger of readiness and trigger
// runs under the artifact directory, so an operator can see when an
// environment last passed and whether it is regressing.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"match-scraper-ops/internal/model"
)

type IndexEntry struct {
	TimestampUTC string `json:"timestampUtc"`
	Command      string `json:"command"` // preflight / trigger
	Env          string `json:"env"`
	OverallPass  bool   `json:"overallPass"`
	Pass         int    `json:"pass"`
	Fail         int    `json:"fail"`
	Warn         int    `json:"warn"`
	Skip         int    `json:"skip"`
	ExitCode     int    `json:"exitCode"`
	JSONFile     string `json:"jsonFile"`
}

type Index struct {
	Entries []IndexEntry `json:"entries"`
}

type Trend struct {
	PreviousFail int
	CurrentFail  int
	Label        string // RECOVERED / REGRESSED / STEADY / FIRST_RUN
}

// Record writes the run artifact into <dir>/history and appends an
// index entry. artifact is the full machine report (the RunReport for
// preflight, report plus effects for trigger); the index keeps only the
// tallies. The ledger is advisory: callers treat errors as
// non-fatal.
func Record(dir, command string, rep *model.RunReport, exitCode int, artifact any) (Trend, error) {
	historyDir := filepath.Join(dir, "history")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return Trend{}, err
	}

	indexPath := filepath.Join(historyDir, "index.json")
	var idx Index
	if raw, err := os.ReadFile(indexPath); err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, &idx)
	}

	prevFail := -1
	for i := len(idx.Entries) - 1; i >= 0; i-- {
		if idx.Entries[i].Env == rep.Env {
			prevFail = idx.Entries[i].Fail
			break
		}
	}

	ts := time.Now().UTC().Format("20060102-150405")
	jsonName := fmt.Sprintf("%s-%s-%s.json", command, rep.Env, ts)
	if err := writeJSON(filepath.Join(historyDir, jsonName), artifact); err != nil {
		return Trend{}, err
	}

	idx.Entries = append(idx.Entries, IndexEntry{
		TimestampUTC: time.Now().UTC().Format(time.RFC3339),
		Command:      command,
		Env:          rep.Env,
		OverallPass:  rep.OverallPass(),
		Pass:         rep.Pass,
		Fail:         rep.Fail,
		Warn:         rep.Warn,
		Skip:         rep.Skip,
		ExitCode:     exitCode,
		JSONFile:     filepath.ToSlash(filepath.Join("history", jsonName)),
	})
	if len(idx.Entries) > 200 {
		idx.Entries = idx.Entries[len(idx.Entries)-200:]
	}

	raw, _ := json.MarshalIndent(idx, "", "  ")
	if err := os.WriteFile(indexPath, raw, 0644); err != nil {
		return Trend{}, err
	}

	tr := Trend{PreviousFail: prevFail, CurrentFail: rep.Fail, Label: "FIRST_RUN"}
	if prevFail >= 0 {
		switch {
		case prevFail > 0 && rep.Fail == 0:
			tr.Label = "RECOVERED"
		case prevFail == 0 && rep.Fail > 0:
			tr.Label = "REGRESSED"
		default:
			tr.Label = "STEADY"
		}
	}
	return tr, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
