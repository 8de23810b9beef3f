package postprocess

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/studioflow/pkg/domain"
)

// TabularFile is the legacy column-oriented report produced by EnergyPlus.
const TabularFile = "eplustbl.csv"

var unitsToken = regexp.MustCompile(`\(([^)]*)\)`)

// ParseTabular converts a column-oriented table into a flat map. Each header
// yields a short snake-case key holding the first data row's value (a float,
// or nil when blank or not finite), a "_units" key from the parenthesized unit token and a
// "_display_name" key holding the header without its units.
func ParseTabular(r io.Reader) (map[string]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	row, err := cr.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}

	out := make(map[string]any, len(header)*3)
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		units := ""
		if m := unitsToken.FindStringSubmatch(col); m != nil {
			units = strings.TrimSpace(m[1])
		}
		display := strings.TrimSpace(unitsToken.ReplaceAllString(col, ""))
		short := SanitizeKey(strings.ReplaceAll(strings.ToLower(display), " ", "_"))
		if short == "" {
			continue
		}

		var value any
		if i < len(row) {
			value = parseCell(row[i])
		}
		out[short] = value
		out[short+"_units"] = units
		out[short+"_display_name"] = display
	}
	return out, nil
}

func parseCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		// JSON has no encoding for these.
		return nil
	}
	return f
}

// parseFinite parses a number that JSON can encode.
func parseFinite(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// TabularToJSON converts runDir/eplustbl.csv and writes the result to
// standard_report_legacy.json next to it.
func TabularToJSON(runDir string) (map[string]any, error) {
	path := filepath.Join(runDir, TabularFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewError(domain.IOError, path, err)
	}
	defer f.Close()

	table, err := ParseTabular(f)
	if err != nil {
		return nil, domain.NewError(domain.IOError, path, err)
	}
	if err := writeJSON(filepath.Join(runDir, domain.LegacyReportFile), table); err != nil {
		return nil, err
	}
	return table, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.NewError(domain.IOError, path, fmt.Errorf("failed to encode: %w", err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.NewError(domain.IOError, path, err)
	}
	return nil
}
