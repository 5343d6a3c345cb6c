package storage

import (
	"database/sql"
	"strconv"
)

// maxSafeJSONInt is the largest magnitude integer that round-trips exactly
// through IEEE-754 float64, which is what every JSON decoder uses for
// "number" by default (2^53).
const maxSafeJSONInt = 1 << 53

// RowsToMaps drains rows into an ordered slice of column->value maps,
// applying the per-cell conversion table: INTEGER becomes an int64 (falling
// back to a decimal string when it exceeds the safe JSON integer range),
// REAL a finite float64, TEXT a string, BLOB raw bytes, NULL nil. Column
// order is preserved alongside the map so callers can serialize in
// declared order.
func RowsToMaps(rows *sql.Rows) ([]string, []map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	scanDest := make([]any, len(cols))
	rawVals := make([]any, len(cols))
	for i := range scanDest {
		scanDest[i] = &rawVals[i]
	}

	var out []map[string]any
	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = convertCell(rawVals[i])
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func convertCell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return convertInteger(x)
	case float64:
		return x
	case []byte:
		return x
	case string:
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return x
	}
}

func convertInteger(n int64) any {
	if n > maxSafeJSONInt || n < -maxSafeJSONInt {
		return strconv.FormatInt(n, 10)
	}
	return n
}
