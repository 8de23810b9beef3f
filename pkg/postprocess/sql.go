package postprocess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const summaryQuery = `
	SELECT Value, Units FROM TabularDataWithStrings
	WHERE ReportName = 'AnnualBuildingUtilityPerformanceSummary'
		AND ReportForString = 'Entire Facility'
		AND TableName = 'Site and Source Energy'
		AND RowName = ?
		AND ColumnName = ?
	LIMIT 1`

type summaryCell struct {
	key    string
	row    string
	column string
}

var summaryCells = []summaryCell{
	{"total_site_energy", "Total Site Energy", "Total Energy"},
	{"net_site_energy", "Net Site Energy", "Total Energy"},
	{"total_source_energy", "Total Source Energy", "Total Energy"},
	{"net_source_energy", "Net Source Energy", "Total Energy"},
	{"total_site_eui", "Total Site Energy", "Energy Per Total Building Area"},
	{"total_source_eui", "Total Source Energy", "Energy Per Total Building Area"},
}

// ReadSQLSummary opens an EnergyPlus SQLite output read-only and returns the
// site and source energy totals. Cells absent from the file are omitted.
func ReadSQLSummary(ctx context.Context, path string) (map[string]any, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	out := make(map[string]any)
	for _, c := range summaryCells {
		var value, units string
		err := db.QueryRowContext(ctx, summaryQuery, c.row, c.column).Scan(&value, &units)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c.key, err)
		}
		if f, ok := parseFinite(value); ok {
			out[c.key] = f
		} else {
			out[c.key] = nil
		}
		out[c.key+"_units"] = units
	}
	return out, nil
}
