// Package csvnorm converts institution CSV exports into canonical
// transactions, driven by an import profile. Rows that cannot be
// parsed are skipped and reported; one bad row never fails the file.
package csvnorm

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"finfeed/internal/canon"
	"finfeed/internal/profile"
)

// Result is the outcome of normalizing one CSV file.
type Result struct {
	// Transactions in file order, sign-adjusted so positive = outflow.
	Transactions []canon.Transaction

	// Skipped lists the data rows that could not be converted.
	Skipped []SkippedRow
}

// SkippedRow records why one data row was dropped.
type SkippedRow struct {
	// Row is the 1-based data row position, counted after skip_rows
	// and the header.
	Row int

	// Reason is a short human-readable explanation.
	Reason string
}

// NormalizeFile opens and normalizes a CSV export.
func NormalizeFile(path string, p *profile.Profile) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()
	return Normalize(f, p)
}

// Normalize reads CSV from r according to the profile and returns the
// canonical transactions. The whole file fails only for structural
// problems: unreadable input, an unsupported encoding, or a column
// mapping that cannot be resolved. Per-row problems (bad dates, bad
// amounts, short or malformed rows) land in Result.Skipped.
func Normalize(r io.Reader, p *profile.Profile) (*Result, error) {
	dec, err := decoderFor(p.CSV.Encoding)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(dec.Reader(r))

	// Leading junk rows are skipped textually. Bank exports often put
	// account summaries here that are not valid CSV.
	for i := 0; i < p.CSV.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return &Result{}, nil
			}
			return nil, fmt.Errorf("skip leading rows: %w", err)
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = []rune(p.CSV.Delimiter)[0]
	cr.FieldsPerRecord = -1

	var header []string
	if p.CSV.HasHeader {
		header, err = cr.Read()
		if errors.Is(err, io.EOF) {
			return &Result{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv header: %w", err)
		}
	}

	idx, err := resolveColumns(p, header)
	if err != nil {
		return nil, err
	}

	var res Result
	row := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Skipped = append(res.Skipped, SkippedRow{Row: row, Reason: "malformed csv: " + pe.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}

		txn, reason := convertRow(rec, idx, p)
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedRow{Row: row, Reason: reason})
			continue
		}
		res.Transactions = append(res.Transactions, txn)
	}

	return &res, nil
}

// decoderFor maps a profile encoding name to a byte-stream decoder.
// The utf-8 decoder also strips a leading byte order mark, which some
// banks prepend and which would otherwise corrupt the first header name.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", "utf-8":
		return unicode.UTF8BOM.NewDecoder(), nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// resolveColumns turns the profile's logical column mapping into
// concrete record indexes. With a header the mapped values are header
// names; without one they are 0-based positions written as strings.
func resolveColumns(p *profile.Profile, header []string) (map[string]int, error) {
	idx := make(map[string]int, len(p.Columns))

	if p.CSV.HasHeader {
		byName := make(map[string]int, len(header))
		for i, h := range header {
			byName[strings.TrimSpace(h)] = i
		}
		for field, name := range p.Columns {
			i, ok := byName[strings.TrimSpace(name)]
			if !ok {
				return nil, fmt.Errorf("column %q (mapped to %s) not found in header", name, field)
			}
			idx[field] = i
		}
		return idx, nil
	}

	for field, pos := range p.Columns {
		i, err := strconv.Atoi(pos)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("column position %q (mapped to %s) is not a non-negative index", pos, field)
		}
		idx[field] = i
	}
	return idx, nil
}

func convertRow(rec []string, idx map[string]int, p *profile.Profile) (canon.Transaction, string) {
	cell := func(field string) (string, bool) {
		i, ok := idx[field]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	rawDate, ok := cell(profile.ColDate)
	if !ok {
		return canon.Transaction{}, "row shorter than date column"
	}
	ts, err := time.Parse(p.DateFormat, rawDate)
	if err != nil {
		return canon.Transaction{}, fmt.Sprintf("unparseable date %q", rawDate)
	}

	rawAmount, ok := cell(profile.ColAmount)
	if !ok {
		return canon.Transaction{}, "row shorter than amount column"
	}
	d, err := canon.ParseAmount(rawAmount)
	if err != nil {
		return canon.Transaction{}, fmt.Sprintf("unparseable amount %q", rawAmount)
	}
	if p.AmountInvert {
		d = d.Neg()
	}

	payee, _ := cell(profile.ColDescription)
	memo, _ := cell(profile.ColMemo)
	sourceID, _ := cell(profile.ColSourceID)

	return canon.Transaction{
		Date:        ts.Format("2006-01-02"),
		Amount:      canon.FormatAmount(d),
		Payee:       payee,
		Memo:        memo,
		Account:     p.DefaultAccount,
		SourceID:    sourceID,
		Institution: p.Institution,
	}, ""
}
