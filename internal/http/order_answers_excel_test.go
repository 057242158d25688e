package httpapi

import (
	"bytes"
	"testing"

	"procureflow-data/internal/apperr"
	"procureflow-data/internal/domain"
	"procureflow-data/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateOrderAnswersExport(t *testing.T) {
	resp := &service.OrderWithChecklistResponse{
		Order: &domain.Order{OrderID: "ord-1"},
		Checklist: &service.OrderChecklistView{
			ChecklistID: "cl-1",
			Title:       "Incoming inspection",
			Version:     2,
			Questions: []service.AnsweredQuestion{
				{
					Question: domain.Question{
						ID:           1,
						Question:     "Is the packaging intact?",
						QuestionType: domain.QuestionTypeRadio,
						IsRequired:   true,
					},
					Answer: "yes",
				},
				{
					Question: domain.Question{
						ID:           2,
						Question:     "Notes",
						QuestionType: domain.QuestionTypeText,
					},
				},
			},
		},
	}

	data, err := GenerateOrderAnswersExport(resp)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Answers")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, OrderAnswersExportHeader, rows[0])
	assert.Equal(t, "Is the packaging intact?", rows[1][1])
	assert.Equal(t, "yes", rows[1][4])
	assert.Equal(t, "Notes", rows[2][1])
}

func TestGenerateOrderAnswersExport_NoChecklist(t *testing.T) {
	resp := &service.OrderWithChecklistResponse{Order: &domain.Order{OrderID: "ord-1"}}

	_, err := GenerateOrderAnswersExport(resp)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
