package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phenylab/pheno-engine/internal/models"
)

// crlf terminates every line; spreadsheet tools expect it.
const crlf = "\r\n"

const disclaimer = "This report is generated for personal tracking and is not a substitute for professional medical advice."

// RenderCSV serialises an aggregated report into CSV text. Section order
// is fixed: title, generation timestamp, period, daily allowance, per-day
// nutrition table, blood table (only when blood records exist), and a
// disclaimer footer.
func RenderCSV(data models.ExportData) string {
	var b strings.Builder

	writeRow(&b, "PKU Diet Report - "+periodLabel(data.Days))
	writeRow(&b, "Generated At", data.GeneratedAt.Format("2006-01-02 15:04"))
	writeRow(&b, "Period", fmt.Sprintf("%s - %s", data.PeriodStart, data.PeriodEnd))
	writeRow(&b)

	writeRow(&b, "Daily Allowance")
	writeRow(&b, "Phenylalanine (mg)", formatNumber(data.Goals.PheMg))
	writeRow(&b, "Calories (kcal)", formatNumber(data.Goals.Calories))
	writeRow(&b, "Protein (g)", formatNumber(data.Goals.ProteinG))
	writeRow(&b, "Phe Per Exchange (mg)", formatNumber(data.PhePerExchange))
	writeRow(&b)

	writeRow(&b, "Daily Nutrition")
	writeRow(&b, "Date", "Phe (mg)", "Confirmed Phe (mg)", "Exchanges",
		"Calories", "Protein (g)", "Carbs (g)", "Fat (g)", "Formula Slots")
	for _, day := range data.DailySummaries {
		writeRow(&b,
			day.Date.String(),
			formatNumber(day.Nutrition.PheMg),
			formatNumber(day.ConfirmedPheMg),
			strconv.FormatFloat(day.Exchanges, 'f', 1, 64),
			formatNumber(day.Nutrition.Calories),
			formatNumber(day.Nutrition.ProteinG),
			formatNumber(day.Nutrition.CarbsG),
			formatNumber(day.Nutrition.FatG),
			fmt.Sprintf("%d/%d", day.CompletedSlots, day.TotalSlots),
		)
	}

	if len(data.BloodRecords) > 0 {
		writeRow(&b)
		writeRow(&b, "Blood Phe Levels")
		writeRow(&b, "Collected At", "Value (umol/L)", "Target Min", "Target Max", "Status", "Notes")
		for _, record := range data.BloodRecords {
			writeRow(&b,
				record.CollectedAt.Format("2006-01-02 15:04"),
				formatNumber(record.ValueUmol),
				formatNumber(record.TargetMin),
				formatNumber(record.TargetMax),
				bloodStatus(record),
				record.Notes,
			)
		}
	}

	writeRow(&b)
	writeRow(&b, disclaimer)
	return b.String()
}

func periodLabel(days int) string {
	switch {
	case days <= 7:
		return fmt.Sprintf("%d Day", days)
	case days <= 30:
		return "1 Month"
	case days <= 90:
		return "3 Month"
	case days <= 180:
		return "6 Month"
	default:
		return "1 Year"
	}
}

func bloodStatus(record models.BloodLevelRecord) string {
	switch {
	case record.ValueUmol < record.TargetMin:
		return "Low"
	case record.ValueUmol > record.TargetMax:
		return "High"
	default:
		return "Normal"
	}
}

func writeRow(b *strings.Builder, fields ...string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(field))
	}
	b.WriteString(crlf)
}

// escapeField applies standard CSV quoting: fields containing a comma,
// quote, or newline are wrapped in double quotes with inner quotes
// doubled.
func escapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
