package bankfile_test

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hamstudy/backend/internal/bankfile"
)

var testHeader = []any{
	"Section", "Group", "question_id", "question_english",
	"correct_answer_english", "incorrect_answer_1_english",
	"incorrect_answer_2_english", "incorrect_answer_3_english",
}

func writeWorkbook(t *testing.T, testRows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "study guide"); err != nil {
		t.Fatal(err)
	}
	// Two banner rows above the header, as in the real workbook.
	if err := f.SetSheetRow("study guide", "A3", &[]any{"Section", "Section Name"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("study guide", "A4", &[]any{"B-001", "Regulations"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("study guide", "A5", &[]any{"B-002", "Operating Procedures"}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.NewSheet("test"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("test", "A1", &testHeader); err != nil {
		t.Fatal(err)
	}
	for i, row := range testRows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("test", cellRef, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "bank.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"B-001", 1, "B-001-001-001", "Who issues licences?", "The regulator", "Nobody", "The club", "The vendor"},
		{"B-001", 2, "B-001-002-001", "What is a callsign?", "A station identifier", "A password", "A channel", "A net"},
		{"B-002", 1, "B-002-001-001", "What does CQ mean?", "Calling any station", "Quiet please", "Change band", "Close down"},
	})

	bank, err := bankfile.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if bank.Len() != 3 {
		t.Fatalf("expected 3 questions, got %d", bank.Len())
	}

	q := bank.Questions()[0]
	if q.ID != "B-001-001-001" {
		t.Errorf("unexpected ID %q", q.ID)
	}
	if q.Section != "B-001" || q.Group != 1 {
		t.Errorf("unexpected topic %s/%d", q.Section, q.Group)
	}
	if q.SectionName != "Regulations" {
		t.Errorf("section name not joined from study guide: %q", q.SectionName)
	}
	if q.Correct != "The regulator" {
		t.Errorf("unexpected correct answer %q", q.Correct)
	}
	if q.Incorrect != [3]string{"Nobody", "The club", "The vendor"} {
		t.Errorf("unexpected incorrect answers %v", q.Incorrect)
	}

	if got := bank.SectionName("B-002"); got != "Operating Procedures" {
		t.Errorf("unexpected section name %q", got)
	}
}

func TestLoad_SkipsBlankRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"B-001", 1, "B-001-001-001", "Q", "A", "B", "C", "D"},
		{"", "", "", "", "", "", "", ""},
	})

	bank, err := bankfile.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bank.Len() != 1 {
		t.Errorf("expected blank row skipped, got %d questions", bank.Len())
	}
}

func TestLoad_BadGroup(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"B-001", "three", "B-001-003-001", "Q", "A", "B", "C", "D"},
	})

	if _, err := bankfile.Load(path); err == nil {
		t.Fatal("expected error for non-numeric group")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := bankfile.Load(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Fatal("expected error for missing workbook")
	}
}
