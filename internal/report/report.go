// Package report writes a per-run summary workbook: one sheet of run
// metadata and totals, one sheet with a row per tile. It is a diagnostic
// artifact for manual QA of a generation run, separate from the
// households/individuals output tables.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/geodemo/popsynth/internal/store/ledger"
)

const (
	summarySheet = "Summary"
	tilesSheet   = "Tiles"
)

// Write renders the workbook for one run and saves it at path.
func Write(path string, run ledger.Run, tiles []ledger.TileRun) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(tilesSheet); err != nil {
		return fmt.Errorf("create tiles sheet: %w", err)
	}

	if err := writeSummary(f, run, tiles); err != nil {
		return err
	}
	if err := writeTiles(f, tiles); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, run ledger.Run, tiles []ledger.TileRun) error {
	var households, individuals int64
	done := 0
	for _, t := range tiles {
		households += t.Households
		individuals += t.Individuals
		if t.Status == ledger.StatusDone {
			done++
		}
	}

	rows := [][2]any{
		{"Run", run.ID},
		{"Territory", run.Territory},
		{"Seed", run.Seed},
		{"Status", run.Status},
		{"Worker", nullable(run.WorkerID.Valid, run.WorkerID.String)},
		{"Started", run.StartedAt},
		{"Finished", nullable(run.FinishedAt.Valid, run.FinishedAt.String)},
		{"Tiles", len(tiles)},
		{"Tiles done", done},
		{"Households", households},
		{"Individuals", individuals},
	}
	for i, row := range rows {
		cellA, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		cellB, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, cellA, row[0]); err != nil {
			return fmt.Errorf("write summary cell: %w", err)
		}
		if err := f.SetCellValue(summarySheet, cellB, row[1]); err != nil {
			return fmt.Errorf("write summary cell: %w", err)
		}
	}
	return nil
}

func writeTiles(f *excelize.File, tiles []ledger.TileRun) error {
	headers := []string{"Tile", "Status", "Households", "Individuals", "Started", "Finished"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(tilesSheet, cell, h); err != nil {
			return fmt.Errorf("write tiles header: %w", err)
		}
	}

	for i, t := range tiles {
		values := []any{
			t.TileID,
			t.Status,
			t.Households,
			t.Individuals,
			t.StartedAt,
			nullable(t.FinishedAt.Valid, t.FinishedAt.String),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(tilesSheet, cell, v); err != nil {
				return fmt.Errorf("write tile row %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func nullable(valid bool, s string) string {
	if !valid {
		return ""
	}
	return s
}
