package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

// Row is one raw, loosely-typed row of a funds-log file, before
// normalization.
type Row map[string]interface{}

// ParseFile decodes the raw bytes of one log file into a sequence of raw
// rows. Three shapes are accepted:
//
//  1. a single JSON array of objects
//  2. newline-delimited JSON, one object per line
//  3. a JSON array of arrays whose first element is a header row
//
// A malformed line in shape 2 is logged and skipped, never fatal. Files that
// fit none of the shapes are rejected with *FileFormatError.
func ParseFile(data []byte, key string) ([]Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FileFormatError{Key: key, Reason: ReasonEmpty}
	}

	values, err := decodeValues(data, key)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, &FileFormatError{Key: key, Reason: ReasonEmpty}
	}

	// An array-of-arrays payload carries its column names in the first row.
	if header, ok := values[0].([]interface{}); ok {
		return zipHeaderRows(header, values[1:], key)
	}

	rows := make([]Row, 0, len(values))
	for i, v := range values {
		m, ok := v.(map[string]interface{})
		if !ok {
			log.Printf("skipping non-object row %d in %s", i, key)
			continue
		}
		rows = append(rows, Row(m))
	}
	if len(rows) == 0 {
		return nil, &FileFormatError{Key: key, Reason: ReasonEmpty}
	}

	return rows, nil
}

// decodeValues tries the whole content as one JSON value first, then falls
// back to line-delimited parsing.
func decodeValues(data []byte, key string) ([]interface{}, error) {
	var whole interface{}
	if err := json.Unmarshal(data, &whole); err == nil {
		arr, ok := whole.([]interface{})
		if !ok {
			return nil, &FileFormatError{Key: key, Reason: ReasonNotAList}
		}
		return arr, nil
	}

	var values []interface{}
	skipped := 0
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(line, &v); err != nil {
			skipped++
			log.Printf("skipping unparseable line %d in %s: %v", i+1, key, err)
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, &FileFormatError{Key: key, Reason: ReasonUnparseable}
	}
	if skipped > 0 {
		log.Printf("parsed %s with %d unparseable lines skipped", key, skipped)
	}

	return values, nil
}

// zipHeaderRows builds mapping rows by zipping each data row against the
// header row. A file with a header and no data rows is a "no data"
// condition, not a parse failure of individual rows.
func zipHeaderRows(header []interface{}, dataRows []interface{}, key string) ([]Row, error) {
	if len(dataRows) == 0 {
		return nil, &FileFormatError{Key: key, Reason: ReasonHeaderOnly}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = columnName(h)
	}

	rows := make([]Row, 0, len(dataRows))
	for i, raw := range dataRows {
		cells, ok := raw.([]interface{})
		if !ok {
			log.Printf("skipping non-array row %d in %s", i+1, key)
			continue
		}
		row := make(Row, len(columns))
		for j, col := range columns {
			if j < len(cells) {
				row[col] = cells[j]
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, &FileFormatError{Key: key, Reason: ReasonHeaderOnly}
	}

	return rows, nil
}

func columnName(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", c)
	}
}
