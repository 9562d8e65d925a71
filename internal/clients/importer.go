package clients

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/monstter/backoffice/internal/shared"
)

var importValidate = validator.New(validator.WithRequiredStructEnabled())

// ImportResult summarises a bulk import.
type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Import creates every valid row and reports the failures without aborting the batch.
func (s *Service) Import(ctx context.Context, rows []Input) ImportResult {
	res := ImportResult{Errors: []string{}}
	for i, in := range rows {
		if err := importValidate.Struct(in); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("linha %d: %v", i+1, err))
			continue
		}
		if _, err := s.Create(ctx, in); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("linha %d (%s): %v", i+1, in.Email, err))
			continue
		}
		res.Success++
	}
	return res
}

var importHeaders = map[string]string{
	"nome":      "name",
	"name":      "name",
	"email":     "email",
	"e-mail":    "email",
	"telefone":  "phone",
	"phone":     "phone",
	"empresa":   "company",
	"company":   "company",
	"documento": "document",
	"cnpj":      "document",
	"cpf":       "document",
	"document":  "document",
}

// ParseSheet reads clients from the first worksheet of an XLSX file. The first row must be a
// header naming at least the name and email columns.
func ParseSheet(r io.Reader) ([]Input, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: planilha inválida: %v", shared.ErrValidation, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: planilha vazia", shared.ErrValidation)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("clients: read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: planilha vazia", shared.ErrValidation)
	}

	index := make(map[string]int)
	for i, cell := range rows[0] {
		if field, ok := importHeaders[strings.ToLower(strings.TrimSpace(cell))]; ok {
			if _, seen := index[field]; !seen {
				index[field] = i
			}
		}
	}
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("%w: coluna Nome ausente", shared.ErrValidation)
	}
	if _, ok := index["email"]; !ok {
		return nil, fmt.Errorf("%w: coluna Email ausente", shared.ErrValidation)
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var out []Input
	for _, row := range rows[1:] {
		in := Input{
			Name:     cell(row, "name"),
			Email:    cell(row, "email"),
			Phone:    cell(row, "phone"),
			Company:  cell(row, "company"),
			Document: cell(row, "document"),
		}
		if in.Name == "" && in.Email == "" {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}
