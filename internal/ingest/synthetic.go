package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hydro_simulator/internal/model"
)

// Readers for previously persisted synthetic tables. A stage whose
// recompute switch is off loads its table from disk instead of drawing
// it again, so these accept exactly what the writers emit.

// ReadSyntheticSWE reads a persisted synthetic SWE table.
func ReadSyntheticSWE(r io.Reader) ([]model.SWEPair, error) {
	rows, err := readTable(r, syntheticSWEHeader)
	if err != nil {
		return nil, err
	}

	pairs := make([]model.SWEPair, len(rows))
	for i, rec := range rows {
		feb, err := parseField(rec.fields[1], "feb_swe_in", rec.line)
		if err != nil {
			return nil, err
		}
		apr, err := parseField(rec.fields[2], "apr_swe_in", rec.line)
		if err != nil {
			return nil, err
		}
		pairs[i] = model.SWEPair{Feb: feb, Apr: apr}
	}
	return pairs, nil
}

// ReadSyntheticGeneration reads a persisted synthetic generation table.
func ReadSyntheticGeneration(r io.Reader) ([]model.SyntheticGeneration, error) {
	rows, err := readTable(r, syntheticGenerationHeader)
	if err != nil {
		return nil, err
	}

	out := make([]model.SyntheticGeneration, len(rows))
	for i, rec := range rows {
		year, month, err := parseYearMonth(rec.fields[0], rec.fields[1], rec.line)
		if err != nil {
			return nil, err
		}
		feb, err := parseField(rec.fields[2], "feb_swe_in", rec.line)
		if err != nil {
			return nil, err
		}
		apr, err := parseField(rec.fields[3], "apr_swe_in", rec.line)
		if err != nil {
			return nil, err
		}
		pred, err := parseField(rec.fields[4], "generation_pred_gwh", rec.line)
		if err != nil {
			return nil, err
		}
		gen, err := parseField(rec.fields[5], "generation_gwh", rec.line)
		if err != nil {
			return nil, err
		}
		out[i] = model.SyntheticGeneration{
			WaterYear: year, WaterMonth: month,
			FebSWE: feb, AprSWE: apr, Predicted: pred, Generation: gen,
		}
	}
	return out, nil
}

// ReadSyntheticPrice reads a persisted synthetic price table.
func ReadSyntheticPrice(r io.Reader) ([]model.SyntheticPrice, error) {
	rows, err := readTable(r, syntheticPriceHeader)
	if err != nil {
		return nil, err
	}

	out := make([]model.SyntheticPrice, len(rows))
	for i, rec := range rows {
		year, month, err := parseYearMonth(rec.fields[0], rec.fields[1], rec.line)
		if err != nil {
			return nil, err
		}
		price, err := parseField(rec.fields[2], "price_usd_mwh", rec.line)
		if err != nil {
			return nil, err
		}
		out[i] = model.SyntheticPrice{WaterYear: year, WaterMonth: month, Price: price}
	}
	return out, nil
}

type tableRow struct {
	line   int
	fields []string
}

func readTable(r io.Reader, expected []string) ([]tableRow, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateHeader(header, expected); err != nil {
		return nil, err
	}

	var rows []tableRow
	lineNum := 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}
		if len(record) < len(expected) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", lineNum, len(expected), len(record))
		}
		rows = append(rows, tableRow{line: lineNum, fields: record})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows in input")
	}
	return rows, nil
}

func parseField(raw, name string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: parsing %s %q: %w", line, name, raw, err)
	}
	return v, nil
}

func parseYearMonth(rawYear, rawMonth string, line int) (int, int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(rawYear))
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: parsing water_year %q: %w", line, rawYear, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(rawMonth))
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: parsing water_month %q: %w", line, rawMonth, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("line %d: water_month %d out of range 1-12", line, month)
	}
	return year, month, nil
}
