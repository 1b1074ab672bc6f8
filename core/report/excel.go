package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	impactSheet  = "Relationships"
)

// renderWorkbook builds the two-sheet impact workbook.
func renderWorkbook(summary Summary, impacts []Impact) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Summary sheet (replaces the default one)
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	summaryRows := [][]interface{}{
		{"Generated at", summary.GeneratedAt.Format(time.RFC1123)},
		{"Relationships", summary.Relationships},
		{"Active relationships", summary.ActiveRelationships},
		{"Confirmed hours", summary.ConfirmedHours},
		{"Meetings held", summary.MeetingsHeld},
		{"Tasks done", summary.TasksDone},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err = f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	// Relationships sheet
	if _, err := f.NewSheet(impactSheet); err != nil {
		return nil, err
	}
	header := []interface{}{
		"Relationship ID", "Entrepreneur", "Ally", "Status",
		"Confirmed hours", "Pending hours", "Meetings held", "Tasks done", "Tasks open", "Documents",
	}
	if err := f.SetSheetRow(impactSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, imp := range impacts {
		row := []interface{}{
			imp.RelationshipID, imp.EntrepreneurName, imp.AllyName, imp.Status,
			imp.ConfirmedHours, imp.PendingHours, imp.MeetingsHeld, imp.TasksDone, imp.TasksOpen, imp.Documents,
		}
		if err := f.SetSheetRow(impactSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	buff, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buff, nil
}
