// Package bankfile loads the question bank from the study-guide
// workbook. The workbook has two sheets: "study guide" (section codes
// and display names, headers on row 3) and "test" (one row per
// question). Loaded once per process; the resulting Bank is read-only.
package bankfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hamstudy/backend/internal/domain/questionbank"
)

const (
	studyGuideSheet = "study guide"
	testSheet       = "test"

	// The study guide sheet has two banner rows above its header.
	studyGuideHeaderRow = 2
)

// Load reads the workbook at path and builds the question bank.
func Load(path string) (*questionbank.Bank, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sectionNames, err := loadSectionNames(f)
	if err != nil {
		return nil, err
	}

	questions, err := loadQuestions(f, sectionNames)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("sheet %q has no questions", testSheet)
	}

	return questionbank.New(questions, sectionNames), nil
}

func loadSectionNames(f *excelize.File) (map[string]string, error) {
	rows, err := f.GetRows(studyGuideSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", studyGuideSheet, err)
	}
	if len(rows) <= studyGuideHeaderRow {
		return nil, fmt.Errorf("sheet %q has no header row", studyGuideSheet)
	}

	cols, err := headerIndex(rows[studyGuideHeaderRow], "Section", "Section Name")
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", studyGuideSheet, err)
	}

	names := make(map[string]string)
	for _, row := range rows[studyGuideHeaderRow+1:] {
		section := cell(row, cols["Section"])
		if section == "" {
			continue
		}
		names[section] = cell(row, cols["Section Name"])
	}
	return names, nil
}

var testColumns = []string{
	"Section",
	"Group",
	"question_id",
	"question_english",
	"correct_answer_english",
	"incorrect_answer_1_english",
	"incorrect_answer_2_english",
	"incorrect_answer_3_english",
}

func loadQuestions(f *excelize.File, sectionNames map[string]string) ([]questionbank.Question, error) {
	rows, err := f.GetRows(testSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", testSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", testSheet)
	}

	cols, err := headerIndex(rows[0], testColumns...)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", testSheet, err)
	}

	var questions []questionbank.Question
	for i, row := range rows[1:] {
		id := cell(row, cols["question_id"])
		if id == "" {
			continue // trailing blank rows
		}

		section := cell(row, cols["Section"])
		groupText := cell(row, cols["Group"])
		group, err := strconv.Atoi(groupText)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: group %q is not a number", testSheet, i+2, groupText)
		}

		questions = append(questions, questionbank.Question{
			ID:          id,
			Section:     section,
			Group:       group,
			SectionName: sectionNames[section],
			Text:        cell(row, cols["question_english"]),
			Correct:     cell(row, cols["correct_answer_english"]),
			Incorrect: [3]string{
				cell(row, cols["incorrect_answer_1_english"]),
				cell(row, cols["incorrect_answer_2_english"]),
				cell(row, cols["incorrect_answer_3_english"]),
			},
		})
	}
	return questions, nil
}

// headerIndex maps the wanted column names to their positions in the
// header row.
func headerIndex(header []string, wanted ...string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	cols := make(map[string]int, len(wanted))
	for _, name := range wanted {
		i, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[name] = i
	}
	return cols, nil
}

// cell returns a trimmed cell value; short rows read as empty.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
