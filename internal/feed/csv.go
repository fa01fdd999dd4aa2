package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const unknownName = "Unknown"

// ParseCSV reads progress rows in the sheet layout Name,Steps,Date[,Miles].
// The first row is a header and is skipped. Unparseable numbers become 0 and
// rows without a name are dropped; a missing date defaults to now's date.
func ParseCSV(r io.Reader, now time.Time) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	today := now.Format("2006-01-02")
	var records []Record
	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse progress csv: %w", err)
		}
		if header {
			header = false
			continue
		}

		rec := Record{
			Name:  column(row, 0),
			Steps: parseSteps(column(row, 1)),
			Date:  column(row, 2),
			Miles: parseMiles(column(row, 3)),
		}
		if rec.Name == "" || rec.Name == unknownName {
			continue
		}
		if rec.Date == "" {
			rec.Date = today
		}
		records = append(records, rec)
	}
	return records, nil
}

func column(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseSteps accepts plain or thousands-separated integers and truncates decimals.
func parseSteps(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

func parseMiles(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
