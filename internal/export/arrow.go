package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"tabload/internal/table"
)

// arrowType maps a column kind to its Arrow representation. Datetimes become
// microsecond UTC timestamps; missing cells become nulls in every kind.
func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.DateTime:
		return arrow.FixedWidthTypes.Timestamp_us
	case table.Integer:
		return arrow.PrimitiveTypes.Int64
	case table.Float:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema returns the Arrow schema corresponding to typed.
func ArrowSchema(typed *table.Typed) *arrow.Schema {
	fields := make([]arrow.Field, len(typed.Columns))
	for i, col := range typed.Columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrowIPC writes typed to w as a single-record Arrow IPC stream.
func WriteArrowIPC(w io.Writer, typed *table.Typed) error {
	schema := ArrowSchema(typed)
	mem := memory.DefaultAllocator

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, col := range typed.Columns {
		if err := appendColumn(b.Field(i), &col); err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	ww := ipc.NewWriter(w, ipc.WithSchema(schema))
	if err := ww.Write(rec); err != nil {
		ww.Close()
		return fmt.Errorf("write record: %w", err)
	}
	return ww.Close()
}

func appendColumn(fb array.Builder, col *table.Column) error {
	switch col.Kind {
	case table.DateTime:
		tb, ok := fb.(*array.TimestampBuilder)
		if !ok {
			return fmt.Errorf("unexpected builder %T for datetime", fb)
		}
		for i := 0; i < col.Len(); i++ {
			if col.Missing[i] {
				tb.AppendNull()
				continue
			}
			tb.Append(arrow.Timestamp(col.Times[i].UTC().UnixMicro()))
		}
	case table.Integer:
		ib, ok := fb.(*array.Int64Builder)
		if !ok {
			return fmt.Errorf("unexpected builder %T for integer", fb)
		}
		for i := 0; i < col.Len(); i++ {
			if col.Missing[i] {
				ib.AppendNull()
				continue
			}
			ib.Append(col.Ints[i])
		}
	case table.Float:
		flb, ok := fb.(*array.Float64Builder)
		if !ok {
			return fmt.Errorf("unexpected builder %T for float", fb)
		}
		for i := 0; i < col.Len(); i++ {
			if col.Missing[i] {
				flb.AppendNull()
				continue
			}
			flb.Append(col.Floats[i])
		}
	default:
		sb, ok := fb.(*array.StringBuilder)
		if !ok {
			return fmt.Errorf("unexpected builder %T for string", fb)
		}
		for i := 0; i < col.Len(); i++ {
			if col.Missing[i] {
				sb.AppendNull()
				continue
			}
			sb.Append(col.Strings[i])
		}
	}
	return nil
}
