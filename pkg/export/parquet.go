package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/datacanary/datacanary/pkg/coltype"
	"github.com/datacanary/datacanary/pkg/tabular"
)

const parquetParallelism = 4

// WriteParquet writes the dataset to a snappy-compressed Parquet file.
// All columns are written OPTIONAL so nulls survive the round trip.
func WriteParquet(ds *tabular.Dataset, path string) error {
	if ds == nil || ds.IsEmpty() {
		return ErrEmptyDataset
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory for %s: %w", path, err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("open parquet file %s: %w", path, err)
	}

	pw, err := writer.NewJSONWriter(parquetSchema(ds), fw, parquetParallelism)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("create parquet writer for %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	names := ds.Names()
	for r := 0; r < ds.RowCount(); r++ {
		row := make(map[string]any, len(names))
		for _, name := range names {
			vals, _ := ds.Values(name)
			typ, _ := ds.TypeOf(name)
			row[name] = parquetValue(vals[r], typ)
		}
		b, err := json.Marshal(row)
		if err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return fmt.Errorf("encode parquet row %d: %w", r, err)
		}
		if err := pw.Write(string(b)); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return fmt.Errorf("write parquet row %d: %w", r, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("finalize parquet file %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet file %s: %w", path, err)
	}
	return nil
}

// parquetSchema builds the JSON schema definition for the writer.
func parquetSchema(ds *tabular.Dataset) string {
	fields := make([]map[string]string, 0, ds.ColumnCount())
	for _, name := range ds.Names() {
		typ, _ := ds.TypeOf(name)
		fields = append(fields, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", name, parquetPhysicalType(typ)),
		})
	}
	root := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(root)
	return string(b)
}

func parquetPhysicalType(t coltype.Type) string {
	switch {
	case t.Kind == coltype.KindBoolean:
		return "BOOLEAN"
	case t.IsInteger():
		return "INT64"
	case t.Kind == coltype.KindFloat32 || t.Kind == coltype.KindFloat64 || t.Kind == coltype.KindDecimal:
		return "DOUBLE"
	default:
		// Strings, temporal values, binary, and categoricals travel as
		// UTF-8 byte arrays.
		return "BYTE_ARRAY, convertedtype=UTF8"
	}
}

// parquetValue converts a stored value to its parquet representation.
func parquetValue(v any, typ coltype.Type) any {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case time.Time:
		switch typ.Kind {
		case coltype.KindDate:
			return x.Format("2006-01-02")
		case coltype.KindTime:
			return x.Format("15:04:05")
		default:
			return x.Format("2006-01-02 15:04:05")
		}
	case []byte:
		return string(x)
	case uint64:
		return int64(x)
	default:
		return x
	}
}
