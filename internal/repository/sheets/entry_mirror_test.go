package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/mamadbah2/packweigh/internal/config"
	"github.com/mamadbah2/packweigh/internal/domain/models"
)

type mockRepo struct {
	rows    [][]interface{}
	readErr error
	writes  [][]interface{}
}

func (m *mockRepo) AppendRow(_ context.Context, _ string, values []interface{}) error {
	m.writes = append(m.writes, values)
	m.rows = append(m.rows, values)
	return nil
}

func (m *mockRepo) ReadRows(_ context.Context, _ string) ([][]interface{}, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.rows, nil
}

var committed = models.Entry{
	Barcode: "0501", DrugName: "Aspirin", WeightBox: 1.5, WeightStrip: 0.3, WeightTablet: 0.05, BulkQuantity: 100,
	CommittedAt: time.Date(2026, 3, 4, 9, 30, 0, 0, time.FixedZone("WAT", 3600)),
}

func TestEntryMirror_WritesHeaderOnceThenRows(t *testing.T) {
	repo := &mockRepo{}
	m := NewEntryMirror(repo, "Entries!A:H", nil)
	ctx := context.Background()

	if err := m.SaveEntry(ctx, "s1", committed); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if err := m.SaveEntry(ctx, "s1", committed); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	if len(repo.writes) != 3 {
		t.Fatalf("expected header + 2 rows, got %d writes", len(repo.writes))
	}
	if repo.writes[0][0] != "Committed At" {
		t.Fatalf("first write should be the header, got %v", repo.writes[0])
	}
	row := repo.writes[1]
	if row[0] != "2026-03-04T08:30:00Z" || row[1] != "s1" || row[2] != "0501" || row[7] != 100 {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestEntryMirror_SkipsHeaderOnExistingSheet(t *testing.T) {
	repo := &mockRepo{rows: [][]interface{}{MirrorHeader}}
	m := NewEntryMirror(repo, "Entries!A:H", nil)

	if err := m.SaveEntry(context.Background(), "s1", committed); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if len(repo.writes) != 1 {
		t.Fatalf("expected a single row write, got %d", len(repo.writes))
	}
}

func TestEntryMirror_RetriesHeaderAfterFailure(t *testing.T) {
	repo := &mockRepo{readErr: errors.New("quota")}
	m := NewEntryMirror(repo, "Entries!A:H", nil)
	ctx := context.Background()

	if err := m.SaveEntry(ctx, "s1", committed); err == nil {
		t.Fatal("expected error while sheet is unreachable")
	}
	if len(repo.writes) != 0 {
		t.Fatalf("nothing should be written, got %d", len(repo.writes))
	}

	repo.readErr = nil
	if err := m.SaveEntry(ctx, "s1", committed); err != nil {
		t.Fatalf("SaveEntry after recovery: %v", err)
	}
	if len(repo.writes) != 2 {
		t.Fatalf("expected header + row, got %d", len(repo.writes))
	}
}

func TestGoogleSheetRepository_AgainstFakeAPI(t *testing.T) {
	var appended struct {
		Values [][]interface{} `json:"values"`
	}
	var inputOption, renderOption string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			inputOption = r.URL.Query().Get("valueInputOption")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &appended)
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Entries!A3:H3","updatedRows":1}}`))
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/v4/spreadsheets/sheet-1/values/"):
			renderOption = r.URL.Query().Get("valueRenderOption")
			_, _ = w.Write([]byte(`{"range":"Entries!A1:H2","values":[["Committed At","Session"],["2026-03-04T08:30:00Z","s1"]]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	repo, err := NewGoogleSheetRepository(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewGoogleSheetRepository: %v", err)
	}

	ctx := context.Background()
	if err := repo.AppendRow(ctx, "Entries!A:H", EntryRow("s1", committed)); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if inputOption != "RAW" {
		t.Fatalf("valueInputOption = %q", inputOption)
	}
	if len(appended.Values) != 1 || appended.Values[0][2] != "0501" {
		t.Fatalf("unexpected appended payload %v", appended.Values)
	}

	rows, err := repo.ReadRows(ctx, "Entries!A:H")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if renderOption != "UNFORMATTED_VALUE" {
		t.Fatalf("valueRenderOption = %q", renderOption)
	}

	if err := repo.AppendRow(ctx, "", nil); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("AppendRow with empty range = %v; want ErrEmptyRange", err)
	}
	if _, err := repo.ReadRows(ctx, ""); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("ReadRows with empty range = %v; want ErrEmptyRange", err)
	}
}

func TestGoogleSheetRepository_RequiresSpreadsheet(t *testing.T) {
	_, err := NewGoogleSheetRepository(context.Background(), config.SheetsConfig{}, nil, option.WithoutAuthentication())
	if !errors.Is(err, ErrNoSpreadsheet) {
		t.Fatalf("err = %v; want ErrNoSpreadsheet", err)
	}
}

func TestGoogleSheetRepository_WrapsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"caller lacks permission"}}`))
	}))
	defer srv.Close()

	repo, err := NewGoogleSheetRepository(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewGoogleSheetRepository: %v", err)
	}

	err = repo.AppendRow(context.Background(), "Entries!A:H", EntryRow("s1", committed))
	if err == nil || !strings.Contains(err.Error(), "append entry row to Entries!A:H") {
		t.Fatalf("unexpected error %v", err)
	}
}
