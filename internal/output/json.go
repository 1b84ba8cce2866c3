package output

import (
	"encoding/json"
	"os"
)

// WriteJSON writes the machine-readable report. Callers pass either a
// RunReport or a trigger artifact bundling report and effects.
func WriteJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
