package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/creds.json")

	_, err := NewFromEnv(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Expenses", 2025, "2025 Expenses"},
		{"  Expenses  ", 2024, "2024 Expenses"},
		{"2023 Expenses", 2025, "2023 Expenses"},
		{"1800 Expenses", 2025, "2025 1800 Expenses"},
		{"2025Expenses", 2025, "2025 2025Expenses"},
		{"", 2025, ""},
	}
	for _, tt := range tests {
		t.Run(tt.baseName, func(t *testing.T) {
			assert.Equal(t, tt.expected, yearPrefixedName(tt.baseName, tt.year))
		})
	}
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'2025 Expenses'", quoteSheet("2025 Expenses"))
	assert.Equal(t, "'Bob''s'", quoteSheet("Bob's"))
}

func TestClient_AppendValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test"} // svc is nil

	_, err := c.Append(context.Background(), core.NewExpense(decimal.NewFromInt(1), "", core.NewDate(2025, 1, 1)))
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	_, err = c.Append(context.Background(), core.NewExpense(decimal.NewFromInt(1), "Food", core.NewDate(2025, 1, 1)))
	assert.ErrorContains(t, err, "not initialized")
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "sheet-1", "Expenses",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestClient_Append(t *testing.T) {
	var (
		gotPath  string
		gotQuery map[string][]string
		gotBody  gsheet.ValueRange
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"'2025 Expenses'!A7:F7","updatedRows":1}}`))
	})

	e := core.NewExpense(decimal.RequireFromString("45.67"), "Food & Dining", core.NewDate(2025, 3, 4))
	e.Notes = "Lunch at cafe"
	e.PaymentMethod = core.Credit

	ref, err := c.Append(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, "'2025 Expenses'!A7:F7", ref)

	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotPath, "/spreadsheets/sheet-1/values/")
	assert.Contains(t, gotPath, "2025 Expenses")
	assert.Equal(t, []string{"USER_ENTERED"}, gotQuery["valueInputOption"])
	assert.Equal(t, []string{"INSERT_ROWS"}, gotQuery["insertDataOption"])

	require.Len(t, gotBody.Values, 1)
	assert.Equal(t, []any{"2025-03-04", "Food & Dining", "Lunch at cafe", "45.67", "credit", ""}, gotBody.Values[0])
}

func TestClient_AppendServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	})

	_, err := c.Append(context.Background(), core.NewExpense(decimal.NewFromInt(1), "Food", core.NewDate(2024, 5, 1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to sheet 2024 Expenses")
}
