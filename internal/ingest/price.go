package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hydro_simulator/internal/model"
)

// PriceParser parses the historical monthly mean wholesale price record.
//
// Expected format:
//
//	water_year,water_month,price_usd_mwh
//	2011,7,36.43
type PriceParser struct{}

func (p *PriceParser) Parse(r io.Reader) ([]model.PriceMonth, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateHeader(header, []string{"water_year", "water_month", "price_usd_mwh"}); err != nil {
		return nil, err
	}

	var months []model.PriceMonth
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

		m, err := parsePriceRecord(record, lineNum)
		if err != nil {
			return nil, err
		}

		months = append(months, m)
	}

	if len(months) == 0 {
		return nil, fmt.Errorf("no price months in input")
	}

	return months, nil
}

func parsePriceRecord(record []string, lineNum int) (model.PriceMonth, error) {
	if len(record) < 3 {
		return model.PriceMonth{}, fmt.Errorf("line %d: expected 3 fields, got %d", lineNum, len(record))
	}

	year, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return model.PriceMonth{}, fmt.Errorf("line %d: parsing water_year %q: %w", lineNum, record[0], err)
	}

	month, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return model.PriceMonth{}, fmt.Errorf("line %d: parsing water_month %q: %w", lineNum, record[1], err)
	}
	if month < 1 || month > 12 {
		return model.PriceMonth{}, fmt.Errorf("line %d: water_month %d out of range 1-12", lineNum, month)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return model.PriceMonth{}, fmt.Errorf("line %d: parsing price_usd_mwh %q: %w", lineNum, record[2], err)
	}
	// The price model is fit on log price.
	if price <= 0 {
		return model.PriceMonth{}, fmt.Errorf("line %d: non-positive price %.2f", lineNum, price)
	}

	return model.PriceMonth{
		WaterYear:  year,
		WaterMonth: month,
		Price:      price,
	}, nil
}
