package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Generates sample funds-log files in the three shapes the parser accepts:
// a JSON array of objects, newline-delimited JSON, and a header-row array of
// arrays. Handy for exercising the pipeline against a local MinIO bucket.

var (
	outputDir   = flag.String("output", "sample-logs", "Directory to write sample files into")
	days        = flag.Int("days", 5, "Number of calendar days to cover")
	filesPerDay = flag.Int("files-per-day", 3, "Log files per day")
	rowsPerFile = flag.Int("rows", 40, "Rows per file")
	seed        = flag.Int64("seed", 42, "Random seed")
)

var amounts = []float64{5, 10, 20, 25, 26, 40, 50, 60, 100, 150}

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	firstDay := time.Now().UTC().AddDate(0, 0, -*days)
	firstDay = time.Date(firstDay.Year(), firstDay.Month(), firstDay.Day(), 0, 0, 0, 0, time.UTC)

	written := 0
	for d := 0; d < *days; d++ {
		day := firstDay.AddDate(0, 0, d)
		for f := 0; f < *filesPerDay; f++ {
			hour := rng.Intn(24)
			minute := 5 * rng.Intn(12)
			name := fmt.Sprintf("funds-log-%s-%02d-%02d.json", day.Format("2006-01-02"), hour, minute)

			data, err := encodeFile(rng, day, hour, written%3)
			if err != nil {
				log.Fatalf("Failed to encode %s: %v", name, err)
			}
			if err := os.WriteFile(filepath.Join(*outputDir, name), data, 0644); err != nil {
				log.Fatalf("Failed to write %s: %v", name, err)
			}
			written++
		}
	}

	log.Printf("Wrote %d sample files to %s", written, *outputDir)
}

// encodeFile renders one file of rows in one of the three shapes.
func encodeFile(rng *rand.Rand, day time.Time, hour, shape int) ([]byte, error) {
	rows := makeRows(rng, day, hour)

	switch shape {
	case 1:
		// Newline-delimited JSON
		var out []byte
		for _, row := range rows {
			line, err := json.Marshal(row)
			if err != nil {
				return nil, err
			}
			out = append(out, line...)
			out = append(out, '\n')
		}
		return out, nil
	case 2:
		// Header row plus array rows
		table := [][]interface{}{{"UserId", "InvoiceType", "Amount", "Timestamp"}}
		for _, row := range rows {
			table = append(table, []interface{}{row["UserId"], row["InvoiceType"], row["Amount"], row["Timestamp"]})
		}
		return json.MarshalIndent(table, "", "  ")
	default:
		// Plain JSON array of objects
		return json.MarshalIndent(rows, "", "  ")
	}
}

func makeRows(rng *rand.Rand, day time.Time, hour int) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, *rowsPerFile)
	for i := 0; i < *rowsPerFile; i++ {
		ts := day.Add(time.Duration(hour)*time.Hour + time.Duration(rng.Intn(3600))*time.Second)

		row := map[string]interface{}{
			"UserId":      rng.Intn(200) + 1,
			"InvoiceType": invoiceType(rng),
			"Amount":      amounts[rng.Intn(len(amounts))],
			"Timestamp":   ts.Unix(),
		}
		// A slice of rows carries no timestamp, like the older log format.
		if rng.Intn(10) == 0 {
			delete(row, "Timestamp")
		}
		// Occasional QA traffic that normalization must drop.
		if rng.Intn(25) == 0 {
			row["TestMode"] = true
		}
		rows = append(rows, row)
	}
	return rows
}

func invoiceType(rng *rand.Rand) int {
	// Roughly: two thirds created, a quarter paid, the rest refunds.
	r := rng.Intn(100)
	switch {
	case r < 65:
		return 0
	case r < 92:
		return 1
	default:
		return 2
	}
}
