package questionbank

import "sort"

// Question is one multiple-choice question from the bank. Questions are
// loaded once from the workbook and never mutated at runtime.
type Question struct {
	ID          string // e.g. "B-001-001-001"
	Section     string // section code, e.g. "B-001"
	Group       int
	SectionName string
	Text        string
	Correct     string
	Incorrect   [3]string
}

// Topic identifies one (section, group) cell of the bank's two-level
// classification.
type Topic struct {
	Section string
	Group   int
}

// Options returns the four answer options in fixed order: correct first,
// then the three incorrect answers. Callers shuffle for presentation.
func (q Question) Options() [4]string {
	return [4]string{q.Correct, q.Incorrect[0], q.Incorrect[1], q.Incorrect[2]}
}

// Bank is an immutable in-memory view of the whole question bank.
// It is built once at startup and shared by reference.
type Bank struct {
	questions    []Question
	sectionNames map[string]string
}

// New builds a Bank from loaded questions and the section display names
// from the study guide. The inputs are copied so later mutation by the
// caller cannot leak in.
func New(questions []Question, sectionNames map[string]string) *Bank {
	qs := make([]Question, len(questions))
	copy(qs, questions)

	names := make(map[string]string, len(sectionNames))
	for code, name := range sectionNames {
		names[code] = name
	}

	return &Bank{questions: qs, sectionNames: names}
}

// Len returns the total number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Questions returns a copy of all questions.
func (b *Bank) Questions() []Question {
	qs := make([]Question, len(b.questions))
	copy(qs, b.questions)
	return qs
}

// SectionName returns the display name for a section code, or the code
// itself when the study guide has no entry for it.
func (b *Bank) SectionName(section string) string {
	if name, ok := b.sectionNames[section]; ok {
		return name
	}
	return section
}

// Sections returns all distinct section codes in sorted order.
func (b *Bank) Sections() []string {
	seen := make(map[string]bool)
	var sections []string
	for _, q := range b.questions {
		if !seen[q.Section] {
			seen[q.Section] = true
			sections = append(sections, q.Section)
		}
	}
	sort.Strings(sections)
	return sections
}

// Groups returns the distinct group numbers within a section, sorted
// numerically.
func (b *Bank) Groups(section string) []int {
	seen := make(map[int]bool)
	var groups []int
	for _, q := range b.questions {
		if q.Section == section && !seen[q.Group] {
			seen[q.Group] = true
			groups = append(groups, q.Group)
		}
	}
	sort.Ints(groups)
	return groups
}

// Topics returns every distinct (section, group) pair, sorted by section
// then group.
func (b *Bank) Topics() []Topic {
	seen := make(map[Topic]bool)
	var topics []Topic
	for _, q := range b.questions {
		t := Topic{Section: q.Section, Group: q.Group}
		if !seen[t] {
			seen[t] = true
			topics = append(topics, t)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Section != topics[j].Section {
			return topics[i].Section < topics[j].Section
		}
		return topics[i].Group < topics[j].Group
	})
	return topics
}

// BySection returns all questions in a section, optionally narrowed to one
// group. A nil group means the whole section.
func (b *Bank) BySection(section string, group *int) []Question {
	var qs []Question
	for _, q := range b.questions {
		if q.Section != section {
			continue
		}
		if group != nil && q.Group != *group {
			continue
		}
		qs = append(qs, q)
	}
	return qs
}

// Filter returns the questions for which keep returns true.
func (b *Bank) Filter(keep func(Question) bool) []Question {
	var qs []Question
	for _, q := range b.questions {
		if keep(q) {
			qs = append(qs, q)
		}
	}
	return qs
}
