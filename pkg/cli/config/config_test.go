package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/doctriage-lab/grammateus/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func writeWorkbook(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intents.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadIntentWorkbook(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  error // matched with errors.Is when set
		wantFail bool  // any error is acceptable
	}{
		{
			name: "valid workbook",
			content: `
[[intent]]
id = "invoice"
name = "Invoice"
description = "Bills requesting payment"

  [[intent.field]]
  name = "invoice_number"
  description = "Invoice identifier"
  required = true

  [[intent.field]]
  name = "total_amount"

[[intent]]
id = "purchase-order"
name = "Purchase Order"
`,
		},
		{
			// ID format failures come from the domain ID validation, not a
			// config sentinel
			name: "invalid intent ID",
			content: `
[[intent]]
id = "INVALID_ID"
name = "Bad Intent"
`,
			wantFail: true,
		},
		{
			name: "missing intent name",
			content: `
[[intent]]
id = "invoice"
`,
			wantErr: config.ErrMissingName,
		},
		{
			name: "duplicate intent IDs",
			content: `
[[intent]]
id = "invoice"
name = "Invoice"

[[intent]]
id = "invoice"
name = "Invoice Again"
`,
			wantErr: config.ErrDuplicateIntentID,
		},
		{
			name: "duplicate field names",
			content: `
[[intent]]
id = "invoice"
name = "Invoice"

  [[intent.field]]
  name = "total_amount"

  [[intent.field]]
  name = "total_amount"
`,
			wantErr: config.ErrDuplicateFieldName,
		},
		{
			name: "field without a name",
			content: `
[[intent]]
id = "invoice"
name = "Invoice"

  [[intent.field]]
  description = "unnamed"
`,
			wantErr: config.ErrMissingName,
		},
		{
			name:    "empty workbook",
			content: `# no intents`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeWorkbook(t, tc.content)

			workbook, err := config.LoadIntentWorkbook(path)
			if tc.wantFail {
				gt.Value(t, err).NotNil()
				return
			}
			if tc.wantErr != nil {
				gt.Value(t, errors.Is(err, tc.wantErr)).Equal(true)
				return
			}

			gt.NoError(t, err).Required()
			gt.Value(t, workbook).NotNil()
		})
	}
}

func TestLoadIntentWorkbook_MissingFile(t *testing.T) {
	_, err := config.LoadIntentWorkbook(filepath.Join(t.TempDir(), "nonexistent.toml"))
	gt.Value(t, err).NotNil()
}

func TestAppConfig_Configure(t *testing.T) {
	t.Run("built-in workbook", func(t *testing.T) {
		book, err := config.NewAppConfigForTest("").Configure()
		gt.NoError(t, err).Required()

		gt.Number(t, len(book.Intents)).Equal(4)
		gt.Array(t, book.IDs()).Equal([]string{"invoice", "rfq", "complaint", "regulation"})

		rfq := book.Find("rfq")
		gt.Value(t, rfq).NotNil().Required()
		gt.S(t, rfq.Name).Equal("Request for Quote")

		invoice := book.Find("invoice")
		gt.Value(t, invoice).NotNil().Required()
		gt.S(t, invoice.Fields[0].Name).Equal("invoice_number")
		gt.B(t, invoice.Fields[0].Required).True()
	})

	t.Run("configured workbook path", func(t *testing.T) {
		path := writeWorkbook(t, `
[[intent]]
id = "timesheet"
name = "Timesheet"
description = "Weekly hour reports"

  [[intent.field]]
  name = "employee_id"
  required = true
`)

		book, err := config.NewAppConfigForTest(path).Configure()
		gt.NoError(t, err).Required()

		gt.Number(t, len(book.Intents)).Equal(1)
		intent := book.Find("timesheet")
		gt.Value(t, intent).NotNil().Required()
		gt.S(t, intent.Name).Equal("Timesheet")
		gt.S(t, intent.Description).Equal("Weekly hour reports")
		gt.Number(t, len(intent.Fields)).Equal(1)
		gt.S(t, intent.Fields[0].Name).Equal("employee_id")
		gt.B(t, intent.Fields[0].Required).True()
	})

	t.Run("broken workbook path", func(t *testing.T) {
		path := writeWorkbook(t, `[[intent]]`)

		_, err := config.NewAppConfigForTest(path).Configure()
		gt.Value(t, err).NotNil()
	})
}
