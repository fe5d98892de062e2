package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Required CSV headers. Matching is case-insensitive.
const (
	ColTicker = "Ticker"
	ColShares = "Shares"
)

type csvRow struct {
	Ticker string `csv:"Ticker"`
	Shares string `csv:"Shares"`
}

// CSVSource reads a delimited file with Ticker and Shares columns. Extra
// columns are ignored.
type CSVSource struct{}

func (CSVSource) Load(ctx context.Context, path string) ([]types.Holding, error) { //nolint:revive // ctx reserved for remote files
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hs, err := ParseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hs, nil
}

// ParseCSV decodes holdings from CSV bytes.
func ParseCSV(data []byte) ([]types.Holding, error) {
	data, err := canonicalHeader(data)
	if err != nil {
		return nil, err
	}
	var rows []*csvRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, err)
	}

	hs := make([]types.Holding, 0, len(rows))
	for i, r := range rows {
		raw := strings.TrimSpace(r.Shares)
		shares, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: shares %q is not a number", apperrors.ErrMalformedInput, i+1, raw)
		}
		hs = append(hs, types.Holding{Identifier: strings.TrimSpace(r.Ticker), Shares: shares})
	}
	if err := Validate(hs); err != nil {
		return nil, err
	}
	return hs, nil
}

// canonicalHeader checks both required columns exist and rewrites their
// header names to the exact spelling the row struct expects.
func canonicalHeader(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	line, rest, hasRest := bytes.Cut(data, []byte("\n"))
	line = bytes.TrimRight(line, "\r")

	header, err := csv.NewReader(bytes.NewReader(line)).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", apperrors.ErrMalformedInput, err)
	}
	found := map[string]bool{}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(ColTicker):
			header[i] = ColTicker
			found[ColTicker] = true
		case strings.ToLower(ColShares):
			header[i] = ColShares
			found[ColShares] = true
		}
	}
	for _, c := range []string{ColTicker, ColShares} {
		if !found[c] {
			return nil, fmt.Errorf("%w: CSV must include %q and %q columns", apperrors.ErrMalformedInput, ColTicker, ColShares)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	w.Flush()
	if hasRest {
		buf.Write(rest)
	}
	return buf.Bytes(), nil
}
