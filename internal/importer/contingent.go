// Package importer parses uploaded contingent roster spreadsheets into
// rows for the bulk import policy. File format concerns live here; the
// service layer never sees file bytes.
package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

// column indexes resolved from the header row
type columnMap struct {
	name       int
	position   int
	department int
	phone      int
	nationalID int
	birthDate  int
	factors    int
}

// headerAliases map recognized header cell values to roster fields.
// Both Russian and English headers occur in the wild.
var headerAliases = map[string]string{
	"фио":              "name",
	"ф.и.о.":           "name",
	"имя":              "name",
	"name":             "name",
	"должность":        "position",
	"position":         "position",
	"подразделение":    "department",
	"отдел":            "department",
	"цех":              "department",
	"department":       "department",
	"телефон":          "phone",
	"phone":            "phone",
	"иин":              "national_id",
	"iin":              "national_id",
	"дата рождения":    "birth_date",
	"birth date":       "birth_date",
	"вредные факторы":  "factors",
	"факторы":          "factors",
	"harmful factors":  "factors",
}

var birthDateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"01-02-06",
	"2/1/2006",
}

func resolveColumns(header []string) columnMap {
	cols := columnMap{name: -1, position: -1, department: -1, phone: -1, nationalID: -1, birthDate: -1, factors: -1}
	for i, cell := range header {
		field, ok := headerAliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		switch field {
		case "name":
			cols.name = i
		case "position":
			cols.position = i
		case "department":
			cols.department = i
		case "phone":
			cols.phone = i
		case "national_id":
			cols.nationalID = i
		case "birth_date":
			cols.birthDate = i
		case "factors":
			cols.factors = i
		}
	}
	return cols
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func parseBirthDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func parseFactors(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var factors []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			factors = append(factors, trimmed)
		}
	}
	return factors
}

// ParseContingent reads the first sheet of an xlsx roster. The first
// row must be a header; when no name column is recognized the first
// column is assumed to hold names, matching the common template.
func ParseContingent(r io.Reader) ([]domain.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("spreadsheet has no data rows")
	}

	cols := resolveColumns(rows[0])
	if cols.name < 0 {
		cols.name = 0
	}

	result := make([]domain.ImportRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// Fully empty rows are common at the end of hand-edited sheets
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		result = append(result, domain.ImportRow{
			Name:           cellAt(row, cols.name),
			Position:       cellAt(row, cols.position),
			Department:     cellAt(row, cols.department),
			Phone:          cellAt(row, cols.phone),
			NationalID:     cellAt(row, cols.nationalID),
			BirthDate:      parseBirthDate(cellAt(row, cols.birthDate)),
			HarmfulFactors: parseFactors(cellAt(row, cols.factors)),
		})
	}

	return result, nil
}
