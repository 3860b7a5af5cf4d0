package datatable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{"id": float64(i + 1), "title": fmt.Sprintf("Prestasi %d", i+1)}
	}
	return rows
}

func TestDecodeRaw(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind RawKind
		wantLen  int
		wantErr  bool
	}{
		{
			name:     "bare array",
			payload:  `[{"id":1},{"id":2}]`,
			wantKind: KindArray,
			wantLen:  2,
		},
		{
			name:     "empty payload",
			payload:  "",
			wantKind: KindArray,
			wantLen:  0,
		},
		{
			name:     "status envelope",
			payload:  `{"status":"success","data":[{"id":1}]}`,
			wantKind: KindStatusEnvelope,
			wantLen:  1,
		},
		{
			name:     "paged envelope",
			payload:  `{"data":[{"id":1}],"current_page":2,"last_page":5,"total":41,"from":11,"to":11,"per_page":10}`,
			wantKind: KindPaged,
			wantLen:  1,
		},
		{
			name:     "paged envelope with only last_page",
			payload:  `{"data":[],"last_page":3}`,
			wantKind: KindPaged,
		},
		{
			name:     "status envelope with null data",
			payload:  `{"status":"success","data":null}`,
			wantKind: KindStatusEnvelope,
			wantLen:  0,
		},
		{
			name:    "unrecognized object",
			payload: `{"message":"hello"}`,
			wantErr: true,
		},
		{
			name:    "broken json",
			payload: `[{"id":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := DecodeRaw([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got kind %v", raw.Kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if raw.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", raw.Kind, tt.wantKind)
			}
			if raw.Kind != KindPaged && len(raw.Records) != tt.wantLen {
				t.Errorf("records = %d, want %d", len(raw.Records), tt.wantLen)
			}
		})
	}
}

// A status wrapper whose data is null is an empty record set, and the records
// slice stays non-nil so the normalized envelope serializes "data": [].
func TestDecodeRawStatusNullData(t *testing.T) {
	raw, err := DecodeRaw([]byte(`{"status":"success","data":null}`))
	if err != nil {
		t.Fatal(err)
	}
	if raw.Kind != KindStatusEnvelope {
		t.Fatalf("kind = %v, want KindStatusEnvelope", raw.Kind)
	}
	if raw.Records == nil {
		t.Error("records must be an empty slice, not nil")
	}

	env := Normalize(raw, Query{Page: 1, PerPage: 10})
	if env.Data == nil || len(env.Data) != 0 {
		t.Errorf("data = %v, want empty slice", env.Data)
	}
}

func TestDecodeRawPagedFields(t *testing.T) {
	payload := `{"data":[{"id":1}],"current_page":2,"last_page":5,"total":41,"from":11,"to":11,"per_page":10}`
	raw, err := DecodeRaw([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	env := raw.Paged
	if env.CurrentPage != 2 || env.LastPage != 5 || env.Total != 41 || env.From != 11 || env.To != 11 || env.PerPage != 10 {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

// Every page window of a bare-array response must be exactly
// records[(page-1)*per : page*per].
func TestNormalizeArrayWindowing(t *testing.T) {
	const total = 47
	const per = 10
	records := makeRows(total)
	raw := RawResponse{Kind: KindArray, Records: records}

	for page := 1; page <= 5; page++ {
		env := Normalize(raw, Query{Page: page, PerPage: per})

		start := (page - 1) * per
		end := start + per
		if end > total {
			end = total
		}

		if len(env.Data) != end-start {
			t.Fatalf("page %d: got %d rows, want %d", page, len(env.Data), end-start)
		}
		for i, row := range env.Data {
			wantID := float64(start + i + 1)
			if row["id"] != wantID {
				t.Errorf("page %d row %d: id = %v, want %v", page, i, row["id"], wantID)
			}
		}
		if env.Total != total {
			t.Errorf("page %d: total = %d, want %d", page, env.Total, total)
		}
		if env.LastPage != 5 {
			t.Errorf("page %d: last_page = %d, want 5", page, env.LastPage)
		}
		if env.From != start+1 || env.To != end {
			t.Errorf("page %d: from/to = %d/%d, want %d/%d", page, env.From, env.To, start+1, end)
		}
	}
}

func TestNormalizeSearchCaseInsensitive(t *testing.T) {
	records := []Row{
		{"title": "Juara Lomba Nasional"},
		{"title": "Publikasi Jurnal"},
		{"title": "juara kompetisi daerah"},
	}
	raw := RawResponse{Kind: KindArray, Records: records}

	env := Normalize(raw, Query{Search: "JUARA", Page: 1, PerPage: 10})
	if len(env.Data) != 2 {
		t.Fatalf("got %d rows, want 2", len(env.Data))
	}
	if env.Total != 2 {
		t.Errorf("total = %d, want 2", env.Total)
	}
}

func TestNormalizePageClamp(t *testing.T) {
	raw := RawResponse{Kind: KindArray, Records: makeRows(15)}

	env := Normalize(raw, Query{Page: 9, PerPage: 10})
	if env.CurrentPage != 2 {
		t.Errorf("current_page = %d, want 2", env.CurrentPage)
	}
	if len(env.Data) != 5 {
		t.Errorf("got %d rows, want 5", len(env.Data))
	}
}

func TestNormalizeEmpty(t *testing.T) {
	env := Normalize(RawResponse{Kind: KindArray, Records: nil}, Query{Page: 3, PerPage: 10})
	if env.LastPage != 1 || env.CurrentPage != 1 {
		t.Errorf("pages = %d/%d, want 1/1", env.CurrentPage, env.LastPage)
	}
	if env.From != 0 || env.To != 0 {
		t.Errorf("from/to = %d/%d, want 0/0", env.From, env.To)
	}
	if env.Data == nil || len(env.Data) != 0 {
		t.Errorf("data = %v, want empty slice", env.Data)
	}
}

func TestNormalizePagedPassthrough(t *testing.T) {
	paged := &Envelope{
		Data:        makeRows(10),
		CurrentPage: 3,
		LastPage:    7,
		Total:       61,
		From:        21,
		To:          30,
		PerPage:     10,
	}
	env := Normalize(RawResponse{Kind: KindPaged, Paged: paged}, Query{Search: "ignored", Page: 1, PerPage: 5})

	// A server-paged response is authoritative; no local filtering or slicing.
	if env.CurrentPage != 3 || env.LastPage != 7 || env.Total != 61 || len(env.Data) != 10 {
		t.Errorf("paged envelope was not passed through: %+v", env)
	}
}

func TestTableRetriesOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(makeRows(3))
	}))
	defer srv.Close()

	table := New(srv.URL, nil, WithDebounce(time.Millisecond))
	env, err := table.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed after retry: %v", err)
	}
	if len(env.Data) != 3 {
		t.Errorf("got %d rows, want 3", len(env.Data))
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestTableFailLoudByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	table := New(srv.URL, nil)
	if _, err := table.Fetch(context.Background()); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
}

func TestTableFailOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	table := New(srv.URL, nil, WithFailOpen())
	env, err := table.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fail-open table returned error: %v", err)
	}
	if len(env.Data) != 0 || env.LastPage != 1 {
		t.Errorf("fail-open envelope not empty: %+v", env)
	}
}

// When the requested page is past the backend's last page, the table clamps
// and refetches so the caller never sees a phantom page.
func TestTableClampRefetch(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages = append(pages, r.URL.Query().Get("page"))
		env := Envelope{Data: makeRows(5), CurrentPage: 2, LastPage: 2, Total: 15, PerPage: 10}
		if r.URL.Query().Get("page") == "9" {
			env.Data = []Row{}
			env.CurrentPage = 9
		}
		json.NewEncoder(w).Encode(env)
	}))
	defer srv.Close()

	table := New(srv.URL, nil)
	table.SetPage(9)

	env, err := table.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[0] != "9" || pages[1] != "2" {
		t.Fatalf("requested pages = %v, want [9 2]", pages)
	}
	if env.CurrentPage != 2 {
		t.Errorf("current_page = %d, want 2", env.CurrentPage)
	}
	if table.CurrentQuery().Page != 2 {
		t.Errorf("table page = %d, want 2", table.CurrentQuery().Page)
	}
}

func TestSetSearchDebounce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]Row{})
	}))
	defer srv.Close()

	done := make(chan struct{}, 1)
	table := New(srv.URL, nil, WithDebounce(20*time.Millisecond))
	table.OnRefresh = func(env Envelope, err error) {
		if err != nil {
			t.Errorf("refresh error: %v", err)
		}
		done <- struct{}{}
	}

	// Rapid keystrokes: only the settled term may fire a request.
	table.SetSearch("j")
	table.SetSearch("ju")
	table.SetSearch("jua")
	table.SetSearch("juara")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced refresh never fired")
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
	if q := table.CurrentQuery(); q.Search != "juara" || q.Page != 1 {
		t.Errorf("query = %+v, want search juara page 1", q)
	}
}

func TestSetPerPageSnapsAndResetsPage(t *testing.T) {
	table := New("http://example.invalid", nil)
	table.SetPage(4)

	table.SetPerPage(23)
	q := table.CurrentQuery()
	if q.PerPage != 20 {
		t.Errorf("per_page = %d, want 20", q.PerPage)
	}
	if q.Page != 1 {
		t.Errorf("page = %d, want 1", q.Page)
	}

	table.SetPerPage(1000)
	if q := table.CurrentQuery(); q.PerPage != 100 {
		t.Errorf("per_page = %d, want 100", q.PerPage)
	}
}

func TestToggleColumn(t *testing.T) {
	cols := []Column{
		{Key: "title", Label: "Judul"},
		{Key: "points", Label: "Poin"},
		{Key: "status", Label: "Status", Hidden: true},
	}
	table := New("http://example.invalid", cols)

	visible := table.VisibleColumns()
	if len(visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(visible))
	}

	table.ToggleColumn("status")
	if len(table.VisibleColumns()) != 3 {
		t.Error("status column should be visible after toggle")
	}

	table.ToggleColumn("points")
	table.ToggleColumn("nope")
	visible = table.VisibleColumns()
	if len(visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(visible))
	}
	if visible[0].Key != "title" || visible[1].Key != "status" {
		t.Errorf("definition order not preserved: %+v", visible)
	}
}

func TestQueryValues(t *testing.T) {
	q := Query{Search: "juara", Page: 2, PerPage: 20}
	v := q.Values()
	if v.Get("search") != "juara" || v.Get("page") != "2" {
		t.Errorf("unexpected values: %v", v)
	}
	// Both page-size dialects are sent.
	if v.Get("per") != "20" || v.Get("per_page") != "20" {
		t.Errorf("per/per_page = %s/%s, want 20/20", v.Get("per"), v.Get("per_page"))
	}

	v = Query{}.Values()
	if v.Get("search") != "" {
		t.Error("empty search must not be sent")
	}
}
