package export

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"placequery/internal/domain"
)

var parquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "category", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "state", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "city", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "longitude", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "latitude", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// parquetEncoder writes a snappy-compressed Parquet file via Arrow. Rows with
// missing coordinates are kept, with nulls in the coordinate columns.
type parquetEncoder struct{}

func (parquetEncoder) Encode(rs *domain.ResultSet) ([]byte, error) {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, parquetSchema)
	defer builder.Release()

	if rs != nil {
		for i := range rs.Places {
			p := &rs.Places[i]
			builder.Field(0).(*array.StringBuilder).Append(p.ID)
			builder.Field(1).(*array.StringBuilder).Append(p.Name)
			builder.Field(2).(*array.StringBuilder).Append(p.Category)
			builder.Field(3).(*array.StringBuilder).Append(p.State)
			builder.Field(4).(*array.StringBuilder).Append(p.City)
			appendOptFloat(builder.Field(5).(*array.Float64Builder), p.Longitude)
			appendOptFloat(builder.Field(6).(*array.Float64Builder), p.Latitude)
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()

	table := array.NewTableFromRecords(parquetSchema, []arrow.Record{rec})
	defer table.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	if err := pqarrow.WriteTable(table, &buf, 64*1024, props, pqarrow.DefaultWriterProps()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (parquetEncoder) MediaType() string { return "application/octet-stream" }
func (parquetEncoder) Extension() string { return "parquet" }

func appendOptFloat(b *array.Float64Builder, v *float64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}
