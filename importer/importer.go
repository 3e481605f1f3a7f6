// Package importer reads and writes the spreadsheets leads, partners and clients are exchanged in.
package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/osr-alliance/backend-lib-crm/normalize"
)

// EmptyFile is the error reported for a workbook without data rows.
const EmptyFile = "Empty file"

// Result is the outcome of reading a workbook. Rows is only set when Success is true.
type Result struct {
	Success bool            `json:"success"`
	Rows    []normalize.Row `json:"rows,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

func failed(msg string) Result {
	return Result{Success: false, Errors: []string{msg}}
}

/*
Read parses the first sheet of an xlsx workbook. The first row holds the column headers and every
following row with at least one non-blank cell becomes a normalize.Row keyed by header, blank cells
left out. When two columns share a header the first non-blank value wins. Each row is tagged with a freshly generated id under normalize.IDKey; an id column in the
file is ignored so re-importing an export can't collide with existing records.
*/
func Read(r io.Reader) Result {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return failed(fmt.Sprintf("read workbook: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return failed(EmptyFile)
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return failed(fmt.Sprintf("read sheet %s: %v", sheets[0], err))
	}
	if len(cells) < 2 {
		return failed(EmptyFile)
	}

	headers := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, normalize.IDKey) {
			h = ""
		}
		headers[i] = h
	}

	rows := make([]normalize.Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		row := normalize.Row{}
		for i, h := range headers {
			if h == "" || i >= len(line) {
				continue
			}
			if _, dup := row[h]; dup {
				continue
			}
			if v := strings.TrimSpace(line[i]); v != "" {
				row[h] = v
			}
		}
		if len(row) == 0 {
			continue
		}

		row[normalize.IDKey] = uuid.NewString()
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return failed(EmptyFile)
	}
	return Result{Success: true, Rows: rows}
}

// ReadFile is Read for a workbook on disk.
func ReadFile(path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return failed(err.Error())
	}
	defer f.Close()
	return Read(f)
}

// Write writes a single-sheet workbook with headers as the first row and one row per record, cells
// in header order.
func Write(w io.Writer, headers []string, rows []normalize.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	line := make([]interface{}, len(headers))
	for i, h := range headers {
		line[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &line); err != nil {
		return err
	}

	for n, row := range rows {
		line := make([]interface{}, len(headers))
		for i, h := range headers {
			line[i] = row[h]
		}

		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
