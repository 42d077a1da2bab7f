// Package export renders milk record histories as downloadable files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"milklog/internal/model"
)

// Header is the column layout shared by the CSV and XLSX exporters. It is a
// superset of the CSV import layout so exports re-import cleanly.
var Header = []string{"id", "cow_tag", "litres", "record_date", "session", "note", "tags", "price_per_litre", "created_at"}

// WriteCSV streams records as CSV with a header row.
func WriteCSV(w io.Writer, recs []model.MilkRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(recordCells(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func recordCells(r model.MilkRecord) []string {
	price := ""
	if r.PricePerLitre != nil {
		price = strconv.FormatFloat(*r.PricePerLitre, 'f', -1, 64)
	}
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.CowTag,
		strconv.FormatFloat(r.Litres, 'f', -1, 64),
		r.RecordDate,
		string(r.Session),
		r.Note,
		r.Tags,
		price,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
