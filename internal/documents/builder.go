// Package documents renders workbook artifacts for roster exports,
// health improvement plans and recommendation reports.
package documents

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Kind selects the artifact template
type Kind string

const (
	KindContingentRoster      Kind = "contingent_roster"
	KindHealthPlan            Kind = "health_plan"
	KindRecommendationsReport Kind = "recommendations_report"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindContingentRoster, KindHealthPlan, KindRecommendationsReport:
		return true
	}
	return false
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006")
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIndex int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIndex)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

// BuildContingentWorkbook renders the roster export
func BuildContingentWorkbook(employees []domain.ContingentEmployee) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"ФИО", "Должность", "Подразделение", "Телефон", "ИИН", "Вредные факторы", "Последний медосмотр", "Следующий медосмотр"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, employee := range employees {
		values := []interface{}{
			employee.Name,
			employee.Position,
			employee.Department,
			employee.Phone,
			employee.NationalID,
			strings.Join(employee.HarmfulFactors, ", "),
			formatDate(employee.LastExaminationDate),
			formatDate(employee.NextExaminationDate),
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

// BuildPlanWorkbook renders a health improvement plan
func BuildPlanWorkbook(plan *domain.HealthImprovementPlan) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "A1", fmt.Sprintf("План оздоровительных мероприятий на %d год", plan.Year)); err != nil {
		return nil, err
	}

	headers := []string{"Мероприятие", "Ответственный", "Срок"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, activity := range plan.Activities {
		values := []interface{}{activity.Activity, activity.Responsible, activity.Deadline}
		if err := writeRow(f, sheet, i+4, values); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

// BuildRecommendationsWorkbook renders the recommendations report
func BuildRecommendationsWorkbook(recs []domain.Recommendation) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Пациент", "Тип", "Рекомендация", "Статус", "Дата выполнения", "Примечания"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range recs {
		values := []interface{}{
			rec.PatientName,
			string(rec.Type),
			rec.Recommendation,
			string(rec.Status),
			formatDate(rec.CompletionDate),
			rec.Notes,
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}
