package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hydro_simulator/internal/model"
)

// GenerationParser parses the historical monthly hydropower generation
// record, one row per (water year, water month) with the snow predictors
// valid for that year.
//
// Expected format:
//
//	water_year,water_month,generation_gwh,feb_swe_in,apr_swe_in
//	2011,7,224.5,31.2,44.8
type GenerationParser struct{}

func (p *GenerationParser) Parse(r io.Reader) ([]model.GenerationMonth, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	expected := []string{"water_year", "water_month", "generation_gwh", "feb_swe_in", "apr_swe_in"}
	if err := validateHeader(header, expected); err != nil {
		return nil, err
	}

	var months []model.GenerationMonth
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

		m, err := parseGenerationRecord(record, lineNum)
		if err != nil {
			return nil, err
		}

		months = append(months, m)
	}

	if len(months) == 0 {
		return nil, fmt.Errorf("no generation months in input")
	}

	return months, nil
}

func parseGenerationRecord(record []string, lineNum int) (model.GenerationMonth, error) {
	if len(record) < 5 {
		return model.GenerationMonth{}, fmt.Errorf("line %d: expected 5 fields, got %d", lineNum, len(record))
	}

	year, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return model.GenerationMonth{}, fmt.Errorf("line %d: parsing water_year %q: %w", lineNum, record[0], err)
	}

	month, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return model.GenerationMonth{}, fmt.Errorf("line %d: parsing water_month %q: %w", lineNum, record[1], err)
	}
	if month < 1 || month > 12 {
		return model.GenerationMonth{}, fmt.Errorf("line %d: water_month %d out of range 1-12", lineNum, month)
	}

	total, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return model.GenerationMonth{}, fmt.Errorf("line %d: parsing generation_gwh %q: %w", lineNum, record[2], err)
	}
	if total < 0 {
		return model.GenerationMonth{}, fmt.Errorf("line %d: negative generation %.2f", lineNum, total)
	}

	feb, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return model.GenerationMonth{}, fmt.Errorf("line %d: parsing feb_swe_in %q: %w", lineNum, record[3], err)
	}

	apr, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	if err != nil {
		return model.GenerationMonth{}, fmt.Errorf("line %d: parsing apr_swe_in %q: %w", lineNum, record[4], err)
	}

	if feb < 0 || apr < 0 {
		return model.GenerationMonth{}, fmt.Errorf("line %d: negative SWE (feb=%.2f apr=%.2f)", lineNum, feb, apr)
	}

	return model.GenerationMonth{
		WaterYear:  year,
		WaterMonth: month,
		Total:      total,
		FebSWE:     feb,
		AprSWE:     apr,
	}, nil
}
