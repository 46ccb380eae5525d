package catalog

import (
	"io"

	"github.com/gocarina/gocsv"
)

type csvRow struct {
	ID          int64  `csv:"id"`
	Name        string `csv:"name"`
	Price       string `csv:"price"`
	Category    string `csv:"category"`
	Description string `csv:"description"`
	Image       string `csv:"image"`
}

// ExportCSV writes the catalog as CSV with a header row.
func (c *Catalog) ExportCSV(w io.Writer) error {
	rows := make([]*csvRow, 0, len(c.products))
	for _, p := range c.products {
		rows = append(rows, &csvRow{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price.StringFixed(2),
			Category:    p.Category,
			Description: p.Description,
			Image:       p.Image,
		})
	}
	return gocsv.Marshal(rows, w)
}
