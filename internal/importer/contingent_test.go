package importer_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/medosmotr/examination-api/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet of a fresh workbook and
// returns the serialized file
func buildWorkbook(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, cell))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseContingent(t *testing.T) {
	t.Run("parses a russian header", func(t *testing.T) {
		buf := buildWorkbook(t, [][]string{
			{"ФИО", "Должность", "Подразделение", "Телефон", "ИИН", "Дата рождения", "Вредные факторы"},
			{"Иванов Иван", "Сварщик", "Цех 2", "87011234567", "900101300100", "01.01.1990", "шум, пыль"},
			{"Петрова Анна", "Бухгалтер", "Офис", "", "", "", ""},
		})

		rows, err := importer.ParseContingent(buf)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Иванов Иван", rows[0].Name)
		assert.Equal(t, "Сварщик", rows[0].Position)
		assert.Equal(t, "Цех 2", rows[0].Department)
		assert.Equal(t, "87011234567", rows[0].Phone)
		assert.Equal(t, "900101300100", rows[0].NationalID)
		require.NotNil(t, rows[0].BirthDate)
		assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), *rows[0].BirthDate)
		assert.Equal(t, []string{"шум", "пыль"}, rows[0].HarmfulFactors)

		assert.Equal(t, "Петрова Анна", rows[1].Name)
		assert.Nil(t, rows[1].BirthDate)
		assert.Empty(t, rows[1].HarmfulFactors)
	})

	t.Run("parses an english header", func(t *testing.T) {
		buf := buildWorkbook(t, [][]string{
			{"Name", "Position", "Department", "Phone", "IIN", "Birth date", "Harmful factors"},
			{"John Smith", "Operator", "Line 1", "+77015556677", "850505400200", "1985-05-05", "vibration; noise"},
		})

		rows, err := importer.ParseContingent(buf)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "John Smith", rows[0].Name)
		assert.Equal(t, []string{"vibration", "noise"}, rows[0].HarmfulFactors)
		require.NotNil(t, rows[0].BirthDate)
	})

	t.Run("falls back to the first column for names", func(t *testing.T) {
		buf := buildWorkbook(t, [][]string{
			{"Сотрудник", "Прочее"},
			{"Иванов Иван", "x"},
		})

		rows, err := importer.ParseContingent(buf)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Иванов Иван", rows[0].Name)
	})

	t.Run("skips fully empty rows", func(t *testing.T) {
		buf := buildWorkbook(t, [][]string{
			{"ФИО", "Должность"},
			{"Иванов Иван", "Сварщик"},
			{"", ""},
			{"Петров Петр", "Водитель"},
		})

		rows, err := importer.ParseContingent(buf)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("keeps an unparseable birth date as nil", func(t *testing.T) {
		buf := buildWorkbook(t, [][]string{
			{"ФИО", "Дата рождения"},
			{"Иванов Иван", "когда-то"},
		})

		rows, err := importer.ParseContingent(buf)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].BirthDate)
	})

	t.Run("rejects a header-only sheet", func(t *testing.T) {
		buf := buildWorkbook(t, [][]string{
			{"ФИО", "Должность"},
		})

		_, err := importer.ParseContingent(buf)
		assert.Error(t, err)
	})

	t.Run("rejects a non-spreadsheet payload", func(t *testing.T) {
		_, err := importer.ParseContingent(bytes.NewBufferString("not an xlsx"))
		assert.Error(t, err)
	})
}
