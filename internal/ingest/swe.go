package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hydro_simulator/internal/model"
)

// SWEParser parses the historical snow water equivalent record.
//
// Expected format:
//
//	water_year,feb_swe_in,apr_swe_in
//	1953,18.8,29.7
type SWEParser struct{}

func (p *SWEParser) Parse(r io.Reader) ([]model.SWEObservation, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateHeader(header, []string{"water_year", "feb_swe_in", "apr_swe_in"}); err != nil {
		return nil, err
	}

	var obs []model.SWEObservation
	lineNum := 1 // header was line 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		o, err := parseSWERecord(record, lineNum)
		if err != nil {
			return nil, err
		}

		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, fmt.Errorf("no SWE observations in input")
	}

	return obs, nil
}

func parseSWERecord(record []string, lineNum int) (model.SWEObservation, error) {
	if len(record) < 3 {
		return model.SWEObservation{}, fmt.Errorf("line %d: expected 3 fields, got %d", lineNum, len(record))
	}

	year, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return model.SWEObservation{}, fmt.Errorf("line %d: parsing water_year %q: %w", lineNum, record[0], err)
	}

	feb, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return model.SWEObservation{}, fmt.Errorf("line %d: parsing feb_swe_in %q: %w", lineNum, record[1], err)
	}

	apr, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return model.SWEObservation{}, fmt.Errorf("line %d: parsing apr_swe_in %q: %w", lineNum, record[2], err)
	}

	if feb < 0 || apr < 0 {
		return model.SWEObservation{}, fmt.Errorf("line %d: negative SWE (feb=%.2f apr=%.2f)", lineNum, feb, apr)
	}

	return model.SWEObservation{
		WaterYear: year,
		Feb:       feb,
		Apr:       apr,
	}, nil
}
