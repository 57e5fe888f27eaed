// Package sheets exports monthly statements to a Google Sheets spreadsheet
// for board members who live in spreadsheets rather than in the app.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"vaad/internal/statements"
)

// Exporter appends statement rows to one sheet of a spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv creates an Exporter from environment variables.
// Required: SHEETS_SPREADSHEET_ID. Optional: SHEETS_SHEET_NAME (default
// "Statements"). Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing SHEETS_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("SHEETS_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Statements"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")))
	if len(credentialsJSON) == 0 {
		file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
		if file == "" {
			file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if file == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportStatement appends the statement's rows to the configured sheet.
func (e *Exporter) ExportStatement(ctx context.Context, st *statements.Statement) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: StatementRows(st)}
	rng := fmt.Sprintf("%s!A:E", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append statement rows: %w", err)
	}
	return nil
}

// StatementRows flattens a statement into spreadsheet rows: a header, one
// row per posted line item, then the computed totals.
func StatementRows(st *statements.Statement) [][]any {
	rows := [][]any{
		{"Statement", st.OwnerID, st.Month.String(), "", ""},
		{"Date", "Type", "Amount", "Description", ""},
	}
	for _, line := range st.Lines {
		rows = append(rows, []any{
			line.Date.Format("2006-01-02"),
			string(line.Type),
			line.Amount.String(),
			line.Description,
			"",
		})
	}
	rows = append(rows,
		[]any{"Charges this month", st.Snapshot.ChargesTotal.String(), "", "", ""},
		[]any{"Payments this month", st.Snapshot.PaymentsTotal.String(), "", "", ""},
		[]any{"Projected balance", st.Snapshot.ProjectedBalance.String(), "", "", ""},
	)
	return rows
}
