package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVParser parses location rows from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed rows.
// Expected columns: kind, name_en, name_ne, parent, website
func (p *CSVParser) Parse(r io.Reader) ([]LocationRow, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[col] = i
	}

	requiredCols := []string{"kind", "name_en"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to LocationRows.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]LocationRow, error) {
	var rows []LocationRow
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rows = append(rows, LocationRow{
			Kind:    getColumn(record, colIndex, "kind"),
			NameEN:  getColumn(record, colIndex, "name_en"),
			NameNE:  getColumn(record, colIndex, "name_ne"),
			Parent:  getColumn(record, colIndex, "parent"),
			Website: getColumn(record, colIndex, "website"),
			LineNum: lineNum,
		})
	}

	return rows, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
