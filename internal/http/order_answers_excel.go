package httpapi

import (
	"bytes"
	"fmt"

	"procureflow-data/internal/apperr"
	"procureflow-data/internal/service"

	"github.com/xuri/excelize/v2"
)

// OrderAnswersExportHeader 答卷导出表头
var OrderAnswersExportHeader = []string{
	"Question ID",
	"Question",
	"Type",
	"Required",
	"Answer",
}

// GenerateOrderAnswersExport 生成订单答卷导出 Excel 文件
// 按订单固定的 checklist 版本逐题输出，未作答的必答项留空
func GenerateOrderAnswersExport(order *service.OrderWithChecklistResponse) ([]byte, error) {
	if order.Checklist == nil {
		return nil, apperr.New(apperr.KindValidation, "this order does not have an associated checklist")
	}

	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Answers"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range OrderAnswersExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for row, q := range order.Checklist.Questions {
		values := []any{
			q.ID,
			q.Question.Question,
			string(q.QuestionType),
			q.IsRequired,
			q.Answer,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	_ = f.Close()
	return buf.Bytes(), nil
}
