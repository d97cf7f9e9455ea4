package storage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"sheets/internal/grid"
)

// ExportCSV writes the snapshot as a dense rectangle of raw cell text, from
// A1 to the bottom-right cell in use. An empty snapshot writes nothing.
func ExportCSV(w io.Writer, snap grid.Snapshot) error {
	maxR, maxC := snap.Bounds()
	if maxR < 0 || maxC < 0 {
		return nil
	}

	out := make([][]string, maxR+1)
	for r := 0; r <= maxR; r++ {
		row := make([]string, maxC+1)
		for c := 0; c <= maxC; c++ {
			row[c] = snap[grid.Key(r, c)]
		}
		out[r] = row
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(out); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}

// ImportCSV reads a CSV document into a new snapshot. Rows may have
// different lengths; empty fields are not stored.
func ImportCSV(r io.Reader) (grid.Snapshot, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	snap := grid.Snapshot{}
	for rIdx, row := range records {
		for cIdx, val := range row {
			if val != "" {
				snap[grid.Key(rIdx, cIdx)] = val
			}
		}
	}
	return snap, nil
}

// SaveCSV writes the snapshot to a CSV file, truncating it.
func SaveCSV(snap grid.Snapshot, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err = ExportCSV(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadCSV reads a CSV file into a new snapshot.
func LoadCSV(filename string) (grid.Snapshot, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ImportCSV(f)
}
