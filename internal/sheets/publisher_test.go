package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

type fakeWriter struct {
	calls    []string
	values   [][]interface{}
	clearErr error
}

func (f *fakeWriter) ClearRange(ctx context.Context, spreadsheetID, range_ string) error {
	f.calls = append(f.calls, "clear "+spreadsheetID+" "+range_)
	return f.clearErr
}

func (f *fakeWriter) UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error {
	f.calls = append(f.calls, "update "+spreadsheetID+" "+range_)
	f.values = values
	return nil
}

func TestPublishClearsThenWrites(t *testing.T) {
	writer := &fakeWriter{}
	p := &Publisher{client: writer, spreadsheetID: "sheet-1", sheetRange: "DMS!A1"}

	rows := [][]string{{"ลำดับ", "ทะเบียน"}, {"1", "70-1234"}, {"2"}}
	if err := p.Publish(context.Background(), rows); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	want := []string{"clear sheet-1 DMS", "update sheet-1 DMS!A1"}
	if strings.Join(writer.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", writer.calls, want)
	}
	if len(writer.values) != 3 || len(writer.values[2]) != 1 {
		t.Errorf("values = %v", writer.values)
	}
	if writer.values[1][1] != "70-1234" {
		t.Errorf("values[1][1] = %v, want 70-1234", writer.values[1][1])
	}
}

func TestPublishEmptyTableOnlyClears(t *testing.T) {
	writer := &fakeWriter{}
	p := &Publisher{client: writer, spreadsheetID: "sheet-1", sheetRange: "DMS!A1"}

	if err := p.Publish(context.Background(), nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(writer.calls) != 1 {
		t.Errorf("calls = %v, want only clear", writer.calls)
	}
}

func TestPublishStopsWhenClearFails(t *testing.T) {
	writer := &fakeWriter{clearErr: errors.New("403 forbidden")}
	p := &Publisher{client: writer, spreadsheetID: "sheet-1", sheetRange: "DMS!A1"}

	if err := p.Publish(context.Background(), [][]string{{"a"}}); err == nil {
		t.Fatal("Publish() expected error")
	}
	if len(writer.calls) != 1 {
		t.Errorf("calls = %v, want only clear", writer.calls)
	}
}

func TestClientAgainstAPI(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
				t.Errorf("valueInputOption = %q, want RAW", got)
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClientWithOptions(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("NewClientWithOptions() error = %v", err)
	}

	p := NewPublisher(client, "sheet-1", "DMS!A1")
	if err := p.Publish(context.Background(), [][]string{{"a", "b"}}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("requests = %v, want 2", paths)
	}
	if !strings.HasPrefix(paths[0], "POST ") || !strings.HasSuffix(paths[0], ":clear") {
		t.Errorf("first request = %q, want clear", paths[0])
	}
	if !strings.HasPrefix(paths[1], "PUT ") {
		t.Errorf("second request = %q, want update", paths[1])
	}
	values, _ := body["values"].([]any)
	if len(values) != 1 {
		t.Errorf("body values = %v", body["values"])
	}
}

func TestToValues(t *testing.T) {
	got := ToValues([][]string{{"a", "b"}, {}})
	if len(got) != 2 || len(got[0]) != 2 || len(got[1]) != 0 {
		t.Errorf("ToValues() = %v", got)
	}
	if got[0][0] != "a" {
		t.Errorf("ToValues()[0][0] = %v", got[0][0])
	}
}
