package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"reconnect-biosignal/internal/models"
)

// SessionReportHeader 会话报表表头
var SessionReportHeader = []string{
	"Field",
	"Value",
}

// GenerateSessionReport 生成会话 Excel 报表
func GenerateSessionReport(s *models.Session) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Session Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range SessionReportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(sheetName, "A", "A", 26)
	_ = f.SetColWidth(sheetName, "B", "B", 48)

	rows := sessionReportRows(s)
	for i, row := range rows {
		cellA, _ := excelize.CoordinatesToCellName(1, i+2)
		cellB, _ := excelize.CoordinatesToCellName(2, i+2)
		_ = f.SetCellValue(sheetName, cellA, row[0])
		_ = f.SetCellValue(sheetName, cellB, row[1])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func sessionReportRows(s *models.Session) [][2]string {
	rows := [][2]string{
		{"Session ID", s.SessionID},
		{"Device ID", s.DeviceID},
		{"User ID", s.UserID},
		{"Session Type", string(s.SessionType)},
		{"Status", s.Status},
		{"Start Time", s.StartTime.Format(time.RFC3339)},
	}

	if s.EndTime != nil {
		rows = append(rows,
			[2]string{"End Time", s.EndTime.Format(time.RFC3339)},
			[2]string{"Duration", s.EndTime.Sub(s.StartTime).Round(time.Second).String()},
		)
	}

	rows = append(rows, [2]string{"Data Points Collected", fmt.Sprintf("%d", s.DataPointsCollected)})
	if s.AverageWellness != nil {
		rows = append(rows, [2]string{"Average Wellness Score", fmt.Sprintf("%.1f/100", *s.AverageWellness)})
	}
	if s.Summary != "" {
		rows = append(rows, [2]string{"Summary", s.Summary})
	}
	for k, v := range s.Metadata {
		rows = append(rows, [2]string{"Metadata: " + k, v})
	}
	return rows
}
