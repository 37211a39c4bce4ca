// Package export writes the product table to local files in the same column
// layout the service uses for its output CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"imgcsv/dto"
)

var header = []string{"S. No.", "Product Name", "Input Image URLs", "Output Image URLs"}

// WriteCSV writes products as CSV. URL lists are comma-joined within a cell,
// mirroring the service's own output files.
func WriteCSV(w io.Writer, products []dto.ProductRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range products {
		row := []string{
			strconv.Itoa(p.SerialNumber),
			p.ProductName,
			strings.Join(p.InputURLs, ","),
			strings.Join(p.OutputURLs, ","),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX returns an XLSX workbook with a single Products sheet.
func WriteXLSX(products []dto.ProductRecord) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Products"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, p := range products {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, p.SerialNumber)
		write(2, p.ProductName)
		write(3, strings.Join(p.InputURLs, ","))
		write(4, strings.Join(p.OutputURLs, ","))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "D", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
