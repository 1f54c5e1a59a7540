package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// LoadBarsCSV reads canonical bar CSV rows:
//
//	open_time,open,high,low,close,volume,close_time
//
// where times are RFC3339 or unix milliseconds. A header row is allowed and
// empty rows are skipped. Files ending in .xz are decompressed transparently,
// so archived exchange dumps can be replayed without unpacking.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		src = xr
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	var bars []Bar
	sawFirst := false
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "open_time") {
				continue
			}
		}
		b, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}

	if err := ValidateSeries(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseBarRow(row []string) (Bar, error) {
	if len(row) < 7 {
		return Bar{}, fmt.Errorf("bad row (need open_time,open,high,low,close,volume,close_time): %v", row)
	}

	openTime, err := parseBarTime(row[0])
	if err != nil {
		return Bar{}, fmt.Errorf("bad open_time %q: %w", row[0], err)
	}
	closeTime, err := parseBarTime(row[6])
	if err != nil {
		return Bar{}, fmt.Errorf("bad close_time %q: %w", row[6], err)
	}

	var vals [5]float64
	for i := 1; i <= 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad numeric field %q: %w", row[i], err)
		}
		vals[i-1] = v
	}

	return Bar{
		OpenTime:  openTime,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
		CloseTime: closeTime,
	}, nil
}

func parseBarTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
