package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Table is a row-per-student, column-per-(role-slot, field) export with a
// two-row header: role-group labels above, field labels below.
type Table struct {
	GroupHeader []string
	FieldHeader []string
	Rows        [][]string
}

// WriteCSV writes both header rows followed by the data rows.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.GroupHeader); err != nil {
		return err
	}
	if err := cw.Write(t.FieldHeader); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the table as a spreadsheet, merging each role-group
// label across the columns of its group.
func (t *Table) WriteXLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	if err := setRow(f, sheet, 1, t.GroupHeader); err != nil {
		return nil, err
	}
	if err := setRow(f, sheet, 2, t.FieldHeader); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := setRow(f, sheet, i+3, row); err != nil {
			return nil, err
		}
	}

	// Merge each group label over the empty header cells to its right.
	start := -1
	for col := 0; col <= len(t.GroupHeader); col++ {
		atEnd := col == len(t.GroupHeader)
		startsGroup := !atEnd && t.GroupHeader[col] != ""
		if (atEnd || startsGroup) && start >= 0 && col-start > 1 {
			from, _ := excelize.CoordinatesToCellName(start+1, 1)
			to, _ := excelize.CoordinatesToCellName(col, 1)
			if err := f.MergeCell(sheet, from, to); err != nil {
				return nil, err
			}
		}
		if startsGroup {
			start = col
		} else if atEnd {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing grade export workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// Bytes renders the table as CSV, for handlers that stream a download.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
