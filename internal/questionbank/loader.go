package questionbank

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/studyhub/internal/exam"
)

var ErrUnsupportedFormat = errors.New("unsupported question bank format")

// document is the on-disk layout for YAML and JSON banks.
type document struct {
	Questions []exam.Question `json:"questions" yaml:"questions"`
}

// LoadFile reads a question bank, picking the decoder by extension.
func LoadFile(path string) ([]exam.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	qs, err := Decode(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return qs, nil
}

// Decode reads a bank in the given format (".yaml", ".yml", ".json" or ".xlsx").
func Decode(r io.Reader, ext string) ([]exam.Question, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		return decodeYAML(r)
	case "json":
		return decodeJSON(r)
	case "xlsx":
		return decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func decodeYAML(r io.Reader) ([]exam.Question, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.Questions, nil
}

func decodeJSON(r io.Reader) ([]exam.Question, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	// Accept a bare array as well as {"questions": [...]}.
	if raw[0] == '[' {
		var qs []exam.Question
		if err := json.Unmarshal(raw, &qs); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return qs, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc.Questions, nil
}

var xlsxColumns = []string{"id", "question", "options", "correct_answer", "explanation", "difficulty", "topic", "question_type"}

// decodeXLSX reads the first sheet. Row 1 is a header naming the columns;
// options are separated by "|".
func decodeXLSX(r io.Reader) ([]exam.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"id", "question", "correct_answer", "difficulty", "topic"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("header is missing column %q (want %s)", name, strings.Join(xlsxColumns, ", "))
		}
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []exam.Question
	for n, row := range rows[1:] {
		if cell(row, "id") == "" && cell(row, "question") == "" {
			continue
		}
		q := exam.Question{
			ID:            cell(row, "id"),
			Text:          cell(row, "question"),
			Options:       splitOptions(cell(row, "options")),
			CorrectAnswer: cell(row, "correct_answer"),
			Explanation:   cell(row, "explanation"),
			Difficulty:    exam.Difficulty(cell(row, "difficulty")),
			Topic:         cell(row, "topic"),
			Type:          exam.QuestionType(cell(row, "question_type")),
		}
		if _, err := exam.NewQuestion(q); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func splitOptions(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
