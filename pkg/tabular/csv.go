package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/datacanary/datacanary/pkg/coltype"
)

// ReadCSV reads a header-first CSV into a dataset, inferring a column type
// from the observed values. Empty cells are nulls.
//
// Inference is deliberately light: Int64, Float64, Boolean, Date, Datetime,
// otherwise String. Anything finer-grained is the advisory process's job.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	raw := make([][]string, len(names))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for i := range names {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		typ := inferType(raw[i])
		vals := make([]any, len(raw[i]))
		for r, cell := range raw[i] {
			if cell == "" {
				continue
			}
			v, err := castValue(cell, typ)
			if err != nil {
				// Inference said the whole column parses; a straggler
				// demotes it to String rather than failing the read.
				typ = coltype.String
				for rr := 0; rr <= r; rr++ {
					if raw[i][rr] == "" {
						vals[rr] = nil
					} else {
						vals[rr] = raw[i][rr]
					}
				}
				for rr := r + 1; rr < len(raw[i]); rr++ {
					if raw[i][rr] == "" {
						vals[rr] = nil
					} else {
						vals[rr] = raw[i][rr]
					}
				}
				break
			}
			vals[r] = v
		}
		cols[i] = Column{Name: name, Type: typ, Values: vals}
	}
	return New(cols...)
}

// WriteCSV writes the dataset with a header row, formatting values by their
// column type. Nulls become empty cells.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return err
	}
	rows := d.RowCount()
	rec := make([]string, len(d.cols))
	for r := 0; r < rows; r++ {
		for i, c := range d.cols {
			rec[i] = formatCell(c.Values[r], c.Type)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any, typ coltype.Type) string {
	if v == nil {
		return ""
	}
	if t, ok := v.(time.Time); ok {
		switch typ.Kind {
		case coltype.KindDate:
			return t.Format(dateLayout)
		case coltype.KindTime:
			return t.Format(timeLayout)
		default:
			return t.Format(datetimeLayout)
		}
	}
	if typ.Kind == coltype.KindDecimal && typ.Precision > 0 {
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'f', typ.Scale, 64)
		}
	}
	return formatValue(v)
}

func inferType(cells []string) coltype.Type {
	candidates := []coltype.Type{
		coltype.Int64,
		coltype.Float64,
		coltype.Boolean,
		coltype.Date,
		coltype.Datetime,
	}
	seen := false
next:
	for _, cand := range candidates {
		for _, cell := range cells {
			if cell == "" {
				continue
			}
			seen = true
			if !parses(cell, cand) {
				continue next
			}
		}
		if seen {
			return cand
		}
		break
	}
	return coltype.String
}

// parses is the strict per-layout check used for inference only; casts
// accept richer forms (see castTemporal), which would mislabel datetime
// columns as dates here.
func parses(cell string, t coltype.Type) bool {
	cell = strings.TrimSpace(cell)
	switch t.Kind {
	case coltype.KindInt64:
		_, err := strconv.ParseInt(cell, 10, 64)
		return err == nil
	case coltype.KindFloat64:
		_, err := strconv.ParseFloat(cell, 64)
		return err == nil
	case coltype.KindBoolean:
		switch strings.ToLower(cell) {
		case "true", "false":
			return true
		}
		return false
	case coltype.KindDate:
		_, err := time.Parse(dateLayout, cell)
		return err == nil
	case coltype.KindDatetime:
		if _, err := time.Parse(datetimeLayout, cell); err == nil {
			return true
		}
		_, err := time.Parse(time.RFC3339, cell)
		return err == nil
	default:
		return true
	}
}
