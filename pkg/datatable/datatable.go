// Package datatable is the Go client for dashboard list endpoints. It fetches
// one page of rows from a REST endpoint, tolerates the three response shapes
// the backends in the wild actually return (bare array, {status,data} envelope,
// full pagination envelope) and normalizes all of them into the full envelope.
// When the backend returned an unwrapped array the search filter and the page
// window are applied locally.
package datatable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"anoa.com/skorprestasi/pkg/pagination"
)

const (
	// SearchDebounce is how long a search-term change is held back before a
	// request fires, so typing does not produce a request per keystroke.
	SearchDebounce = 500 * time.Millisecond

	retryDelay = 500 * time.Millisecond
)

// Row is one record as returned by the backend.
type Row = map[string]any

// Envelope is the normalized result shape shared with the server side.
type Envelope = pagination.Envelope[Row]

// Query holds the list parameters sent with every request.
type Query struct {
	Search  string
	Page    int
	PerPage int
}

// Values encodes the query the way the dashboard backends expect it. The page
// size is sent as both "per" and "per_page" for backend-dialect compatibility.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per", strconv.Itoa(q.PerPage))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	return v
}

func (q *Query) normalize() {
	if q.Page <= 0 {
		q.Page = pagination.DefaultPage
	}
	if q.PerPage <= 0 {
		q.PerPage = pagination.DefaultPerPage
	}
}

// RawKind discriminates the supported backend response shapes.
type RawKind int

const (
	// KindArray is a bare JSON array of records.
	KindArray RawKind = iota
	// KindStatusEnvelope is {"status": "...", "data": [...]}.
	KindStatusEnvelope
	// KindPaged is the full pagination envelope
	// {"data": [...], "current_page", "last_page", "total", "from", "to"}.
	KindPaged
)

// RawResponse is the decoded server response before normalization.
type RawResponse struct {
	Kind    RawKind
	Records []Row
	Paged   *Envelope
}

type pagedEnvelope struct {
	Data        []Row  `json:"data"`
	CurrentPage *int   `json:"current_page"`
	LastPage    *int   `json:"last_page"`
	Total       *int64 `json:"total"`
	From        int    `json:"from"`
	To          int    `json:"to"`
	PerPage     int    `json:"per_page"`
	Status      string `json:"status"`
}

// DecodeRaw detects which of the three supported shapes the payload is. Shape
// detection happens exactly once, here; everything downstream works on the
// RawResponse sum.
func DecodeRaw(data []byte) (RawResponse, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return RawResponse{Kind: KindArray, Records: []Row{}}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var records []Row
		if err := json.Unmarshal(data, &records); err != nil {
			return RawResponse{}, fmt.Errorf("failed to decode array response: %w", err)
		}
		return RawResponse{Kind: KindArray, Records: records}, nil
	}

	var env pagedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return RawResponse{}, fmt.Errorf("failed to decode envelope response: %w", err)
	}

	// A real pagination envelope carries at least current_page or last_page.
	if env.CurrentPage != nil || env.LastPage != nil {
		paged := &Envelope{
			Data:        env.Data,
			CurrentPage: intOr(env.CurrentPage, 1),
			LastPage:    intOr(env.LastPage, 1),
			From:        env.From,
			To:          env.To,
			PerPage:     env.PerPage,
		}
		if env.Total != nil {
			paged.Total = *env.Total
		} else {
			paged.Total = int64(len(env.Data))
		}
		return RawResponse{Kind: KindPaged, Paged: paged}, nil
	}

	// A status wrapper with "data": null is an empty record set, not an
	// unknown shape.
	if env.Data != nil || env.Status != "" {
		records := env.Data
		if records == nil {
			records = []Row{}
		}
		return RawResponse{Kind: KindStatusEnvelope, Records: records}, nil
	}

	return RawResponse{}, fmt.Errorf("unrecognized response shape")
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

// Normalize turns any decoded response into the full envelope. Bare arrays
// (and the {status,data} envelope, which carries no paging info either) get
// the search filter and the page window applied locally; already-paged
// responses pass through untouched apart from zero-value repairs.
func Normalize(raw RawResponse, q Query) Envelope {
	q.normalize()

	if raw.Kind == KindPaged {
		env := *raw.Paged
		if env.Data == nil {
			env.Data = []Row{}
		}
		if env.PerPage == 0 {
			env.PerPage = q.PerPage
		}
		return env
	}

	records := raw.Records
	if records == nil {
		// An empty set still serializes as "data": [].
		records = []Row{}
	}
	if q.Search != "" {
		records = filterRows(records, q.Search)
	}

	total := int64(len(records))
	last := pagination.LastPage(total, q.PerPage)
	page := q.Page
	if page > last {
		page = last
	}

	start := (page - 1) * q.PerPage
	end := start + q.PerPage
	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}

	window := records[start:end]
	from, to := 0, 0
	if len(window) > 0 {
		from = start + 1
		to = start + len(window)
	}

	return Envelope{
		Data:        window,
		CurrentPage: page,
		LastPage:    last,
		Total:       total,
		From:        from,
		To:          to,
		PerPage:     q.PerPage,
	}
}

// filterRows keeps rows whose JSON serialization contains the term,
// case-insensitively.
func filterRows(records []Row, term string) []Row {
	term = strings.ToLower(term)
	out := make([]Row, 0, len(records))
	for _, rec := range records {
		serialized, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(serialized)), term) {
			out = append(out, rec)
		}
	}
	return out
}

// Column describes one table column.
type Column struct {
	Key    string
	Label  string
	Hidden bool
}

// Option configures a Table.
type Option func(*Table)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Table) { t.client = client }
}

// WithStaticParams adds fixed query parameters sent with every request, e.g. a
// status filter the caller pins.
func WithStaticParams(params url.Values) Option {
	return func(t *Table) { t.static = params }
}

// WithFailOpen restores the legacy behavior where a failed fetch yields an
// empty envelope instead of an error, keeping the table rendered at the cost
// of hiding the failure.
func WithFailOpen() Option {
	return func(t *Table) { t.failOpen = true }
}

// WithDebounce overrides the search debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(t *Table) { t.debounce = d }
}

// Table drives one paginated list view against a REST endpoint.
type Table struct {
	client   *http.Client
	baseURL  string
	static   url.Values
	failOpen bool
	debounce time.Duration

	mu      sync.Mutex
	columns []Column
	hidden  map[string]bool
	query   Query
	timer   *time.Timer

	// OnRefresh, when set, is invoked with the fresh envelope after a
	// debounced search fires.
	OnRefresh func(Envelope, error)
}

// New creates a table for the given endpoint and column definitions.
func New(baseURL string, columns []Column, opts ...Option) *Table {
	t := &Table{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  baseURL,
		columns:  columns,
		hidden:   make(map[string]bool),
		debounce: SearchDebounce,
		query:    Query{Page: pagination.DefaultPage, PerPage: pagination.DefaultPerPage},
	}
	for _, col := range columns {
		if col.Hidden {
			t.hidden[col.Key] = true
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fetch requests the current page. A failed request is retried once after a
// fixed delay before being reported.
func (t *Table) Fetch(ctx context.Context) (Envelope, error) {
	t.mu.Lock()
	q := t.query
	t.mu.Unlock()

	env, err := t.fetch(ctx, q)
	if err != nil {
		if t.failOpen {
			return Normalize(RawResponse{Kind: KindArray, Records: []Row{}}, q), nil
		}
		return Envelope{}, err
	}

	// The backend may have fewer pages than we asked for; clamp and refetch
	// so the caller never looks at a page past the end.
	if q.Page > env.LastPage {
		t.mu.Lock()
		t.query.Page = env.LastPage
		q = t.query
		t.mu.Unlock()

		env, err = t.fetch(ctx, q)
		if err != nil {
			if t.failOpen {
				return Normalize(RawResponse{Kind: KindArray, Records: []Row{}}, q), nil
			}
			return Envelope{}, err
		}
	}

	return env, nil
}

func (t *Table) fetch(ctx context.Context, q Query) (Envelope, error) {
	body, err := t.get(ctx, q)
	if err != nil {
		select {
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-time.After(retryDelay):
		}
		body, err = t.get(ctx, q)
		if err != nil {
			return Envelope{}, err
		}
	}

	raw, err := DecodeRaw(body)
	if err != nil {
		return Envelope{}, err
	}

	return Normalize(raw, q), nil
}

func (t *Table) get(ctx context.Context, q Query) ([]byte, error) {
	values := q.Values()
	for key, vals := range t.static {
		for _, v := range vals {
			values.Add(key, v)
		}
	}

	sep := "?"
	if strings.Contains(t.baseURL, "?") {
		sep = "&"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+sep+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("list request failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// SetPage moves to the given page.
func (t *Table) SetPage(page int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if page < 1 {
		page = 1
	}
	t.query.Page = page
}

// SetPerPage changes the page size and resets to the first page. Sizes outside
// the allowed set are snapped to the nearest valid choice.
func (t *Table) SetPerPage(per int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.query.PerPage = snapPerPage(per)
	t.query.Page = 1
}

func snapPerPage(per int) int {
	best := pagination.PerPageChoices[0]
	for _, choice := range pagination.PerPageChoices {
		if abs(choice-per) < abs(best-per) {
			best = choice
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// SetSearch records a new search term and arms the debounce timer. The actual
// fetch fires once the term has been stable for the debounce interval, and the
// page resets to 1 because the old offset is meaningless for a new term.
func (t *Table) SetSearch(term string) {
	t.mu.Lock()
	t.query.Search = term
	t.query.Page = 1
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.debounce, func() {
		if t.OnRefresh == nil {
			return
		}
		env, err := t.Fetch(context.Background())
		t.OnRefresh(env, err)
	})
	t.mu.Unlock()
}

// Query returns a copy of the current query state.
func (t *Table) CurrentQuery() Query {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.query
}

// ToggleColumn flips the visibility of a column; unknown keys are ignored.
func (t *Table) ToggleColumn(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, col := range t.columns {
		if col.Key == key {
			t.hidden[key] = !t.hidden[key]
			return
		}
	}
}

// VisibleColumns returns the columns currently shown, in definition order.
func (t *Table) VisibleColumns() []Column {
	t.mu.Lock()
	defer t.mu.Unlock()
	visible := make([]Column, 0, len(t.columns))
	for _, col := range t.columns {
		if !t.hidden[col.Key] {
			visible = append(visible, col)
		}
	}
	return visible
}

// PageWindow returns the sliding window of page links around the current page.
func (t *Table) PageWindow(env Envelope, width int) []int {
	return pagination.Window(env.CurrentPage, env.LastPage, width)
}
