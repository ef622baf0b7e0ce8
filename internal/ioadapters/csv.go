// Package ioadapters provides minimal CSV-backed implementations of the
// pipeline's collaborator interfaces. These are intentionally thin: the
// production stack (HTTP downloaders for the two source datasets,
// archive decompression, CRS reprojection, and the batched geospatial
// sink) is expected to be supplied by the caller through the same
// pipeline.TileSource / pipeline.AddressSource / pipeline.Sink
// interfaces. This package exists so cmd/generate and cmd/server are
// runnable end-to-end against flat files in tests and local development.
package ioadapters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/geodemo/popsynth/pkg/address"
	"github.com/geodemo/popsynth/pkg/household"
	"github.com/geodemo/popsynth/pkg/individual"
	"github.com/geodemo/popsynth/pkg/tilerefine"
)

// tileColumns is the CSV header the tile reader/writer agree on, in the
// order the gridded input lists its required attributes.
var tileColumns = []string{
	"id", "ind", "men", "men_1ind", "men_5ind", "men_fmp",
	"men_prop", "men_coll", "men_mais", "ind_snv", "men_pauv",
	"ind_0_3", "ind_4_5", "ind_6_10", "ind_11_17",
	"ind_18_24", "ind_25_39", "ind_40_54", "ind_55_64", "ind_65_79", "ind_80_105", "ind_inc",
}

// CSVTileSource reads raw tiles from a CSV file shaped like tileColumns.
type CSVTileSource struct {
	Path string
}

func (s CSVTileSource) Tiles(ctx context.Context) ([]tilerefine.RawTile, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open tile CSV %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read tile CSV header: %w", err)
	}
	idx, err := columnIndex(header, tileColumns)
	if err != nil {
		return nil, fmt.Errorf("tile CSV %s: %w", s.Path, err)
	}

	var tiles []tilerefine.RawTile
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tile CSV row: %w", err)
		}
		t, err := parseRawTile(row, idx)
		if err != nil {
			return nil, fmt.Errorf("tile CSV %s: %w", s.Path, err)
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

func parseRawTile(row []string, idx map[string]int) (tilerefine.RawTile, error) {
	get := func(col string) (float64, error) {
		v := row[idx[col]]
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %q is not numeric: %w", col, v, err)
		}
		return f, nil
	}

	var t tilerefine.RawTile
	t.ID = row[idx["id"]]
	if t.ID == "" {
		return t, fmt.Errorf("missing tile id")
	}
	var err error
	if t.Ind, err = get("ind"); err != nil {
		return t, err
	}
	if t.Men, err = get("men"); err != nil {
		return t, err
	}
	if t.Men1Ind, err = get("men_1ind"); err != nil {
		return t, err
	}
	if t.Men5Ind, err = get("men_5ind"); err != nil {
		return t, err
	}
	if t.MenFmp, err = get("men_fmp"); err != nil {
		return t, err
	}
	if t.MenProp, err = get("men_prop"); err != nil {
		return t, err
	}
	if t.MenColl, err = get("men_coll"); err != nil {
		return t, err
	}
	if t.MenMais, err = get("men_mais"); err != nil {
		return t, err
	}
	if t.IndSNV, err = get("ind_snv"); err != nil {
		return t, err
	}
	if t.MenPauv, err = get("men_pauv"); err != nil {
		return t, err
	}
	bandCols := tileColumns[11:]
	for i, col := range bandCols {
		v, err := get(col)
		if err != nil {
			return t, err
		}
		t.Bands[i] = v
	}
	return t, nil
}

func columnIndex(header []string, want []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, col := range want {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return idx, nil
}

// CSVAddressSource reads address points from a two-column (x, y) CSV
// file.
type CSVAddressSource struct {
	Path string
}

func (s CSVAddressSource) Addresses(ctx context.Context) ([]address.Point, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open address CSV %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read address CSV header: %w", err)
	}
	idx, err := columnIndex(header, []string{"x", "y"})
	if err != nil {
		return nil, fmt.Errorf("address CSV %s: %w", s.Path, err)
	}

	var points []address.Point
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read address CSV row: %w", err)
		}
		x, err := strconv.ParseFloat(row[idx["x"]], 64)
		if err != nil {
			return nil, fmt.Errorf("address CSV %s: x %q is not numeric: %w", s.Path, row[idx["x"]], err)
		}
		y, err := strconv.ParseFloat(row[idx["y"]], 64)
		if err != nil {
			return nil, fmt.Errorf("address CSV %s: y %q is not numeric: %w", s.Path, row[idx["y"]], err)
		}
		points = append(points, address.Point{X: x, Y: y})
	}
	return points, nil
}

// CSVSink writes household and individual batches to two CSV files. It
// is not a geospatial sink: it has no metadata sidecars and encodes
// geometry as plain x/y columns.
type CSVSink struct {
	HouseholdsPath  string
	IndividualsPath string

	// Append keeps existing rows instead of truncating, so a resumed run
	// adds its remaining tiles to the output already written. Headers are
	// only written when a file is empty.
	Append bool

	householdsW *csv.Writer
	individualsW *csv.Writer
	householdsF  *os.File
	individualsF *os.File
}

func (s *CSVSink) openOne(path string) (*os.File, bool, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if s.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open output CSV %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("stat output CSV %s: %w", path, err)
	}
	return f, info.Size() == 0, nil
}

// Open prepares both output files, writing headers unless appending to
// files that already carry rows.
func (s *CSVSink) Open() error {
	hf, hEmpty, err := s.openOne(s.HouseholdsPath)
	if err != nil {
		return err
	}
	inf, iEmpty, err := s.openOne(s.IndividualsPath)
	if err != nil {
		hf.Close()
		return err
	}
	s.householdsF, s.individualsF = hf, inf
	s.householdsW, s.individualsW = csv.NewWriter(hf), csv.NewWriter(inf)

	if hEmpty {
		householdHeader := []string{
			"id", "tile_id", "x", "y", "size", "adults", "minors",
			"large", "monoparental", "living_standard",
		}
		for _, b := range tileColumns[11:] {
			householdHeader = append(householdHeader, b)
		}
		if err := s.householdsW.Write(householdHeader); err != nil {
			return err
		}
	}

	if iEmpty {
		individualHeader := []string{
			"id", "household_id", "tile_id", "x", "y", "household_size",
			"large", "monoparental", "living_standard", "age_band", "age",
			"adult", "status",
		}
		if err := s.individualsW.Write(individualHeader); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes both output files. Safe to call twice.
func (s *CSVSink) Close() error {
	if s.householdsW != nil {
		s.householdsW.Flush()
	}
	if s.individualsW != nil {
		s.individualsW.Flush()
	}
	var errs []error
	if s.householdsF != nil {
		if err := s.householdsF.Close(); err != nil {
			errs = append(errs, err)
		}
		s.householdsF = nil
	}
	if s.individualsF != nil {
		if err := s.individualsF.Close(); err != nil {
			errs = append(errs, err)
		}
		s.individualsF = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close CSV sink: %v", errs)
	}
	return nil
}

func (s *CSVSink) WriteHouseholds(ctx context.Context, batch []*household.Household) error {
	for _, h := range batch {
		row := []string{
			h.ID, h.TileID.String(),
			strconv.FormatFloat(h.X, 'f', -1, 64), strconv.FormatFloat(h.Y, 'f', -1, 64),
			strconv.Itoa(h.Size), strconv.Itoa(h.Adults), strconv.Itoa(h.Minors),
			strconv.FormatBool(h.Large), strconv.FormatBool(h.Monoparental),
			strconv.FormatFloat(h.LivingStandard, 'f', -1, 64),
		}
		for _, c := range h.Bands {
			row = append(row, strconv.Itoa(c))
		}
		if err := s.householdsW.Write(row); err != nil {
			return fmt.Errorf("write household row: %w", err)
		}
	}
	s.householdsW.Flush()
	return s.householdsW.Error()
}

func (s *CSVSink) WriteIndividuals(ctx context.Context, batch []individual.Individual) error {
	for _, ind := range batch {
		row := []string{
			ind.ID, ind.HouseholdID, ind.TileID.String(),
			strconv.FormatFloat(ind.X, 'f', -1, 64), strconv.FormatFloat(ind.Y, 'f', -1, 64),
			strconv.Itoa(ind.HouseholdSize),
			strconv.FormatBool(ind.Large), strconv.FormatBool(ind.Monoparental),
			strconv.FormatFloat(ind.LivingStandard, 'f', -1, 64),
			ind.AgeBand, strconv.Itoa(ind.Age),
			strconv.FormatBool(ind.IsAdult), ind.Status,
		}
		if err := s.individualsW.Write(row); err != nil {
			return fmt.Errorf("write individual row: %w", err)
		}
	}
	s.individualsW.Flush()
	return s.individualsW.Error()
}
