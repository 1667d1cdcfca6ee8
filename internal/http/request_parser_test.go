package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/store"
)

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    ListParams
		wantErr error
	}{
		{
			name:  "defaults",
			query: url.Values{},
			want:  ListParams{Page: 1, PageSize: 10},
		},
		{
			name: "all values provided",
			query: url.Values{
				"search": {"  coffee "}, "type": {"expense"}, "category": {"Food"},
				"period": {"month"}, "sort": {"amount-desc"}, "page": {"2"}, "pageSize": {"25"},
			},
			want: ListParams{
				Params: query.Params{
					Search: "coffee", Type: "expense", Category: "Food",
					Period: "month", Sort: "amount-desc",
				},
				Page:     2,
				PageSize: 25,
			},
		},
		{
			name:    "unknown type",
			query:   url.Values{"type": {"transfer"}},
			wantErr: query.ErrInvalidParams,
		},
		{
			name:    "unknown sort",
			query:   url.Values{"sort": {"random"}},
			wantErr: query.ErrInvalidParams,
		},
		{
			name:    "non-numeric page",
			query:   url.Values{"page": {"abc"}},
			wantErr: errBadRequest,
		},
		{
			name:    "zero page",
			query:   url.Values{"page": {"0"}},
			wantErr: errBadRequest,
		},
		{
			name:    "page size too large",
			query:   url.Values{"pageSize": {"1000"}},
			wantErr: errBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListParams(tt.query, 10)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseListParams() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseListParams() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseListParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantErr   error
	}{
		{name: "valid", body: `{"description":"Coffee","amount":"3.50","type":"expense","category":"Food","date":"2024-03-01"}`},
		{name: "empty body", body: ``, wantErr: errBadRequest},
		{name: "malformed", body: `{"description":`, wantErr: errBadRequest},
		{name: "trailing data", body: `{"description":"a"} {}`, wantErr: errBadRequest},
		{name: "bad amount", body: `{"amount":"ten"}`, wantErr: core.ErrValidation, wantField: "amount"},
		{name: "bad date", body: `{"date":"01/03/2024"}`, wantErr: core.ErrValidation, wantField: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			var req transactionRequest
			err := decodeJSON(w, r, &req)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("decodeJSON() unexpected error = %v", err)
				}
				if !req.Amount.Equal(core.MustParseMoney("3.5")) {
					t.Errorf("amount = %s, want 3.5", req.Amount)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("decodeJSON() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantField != "" {
				var verr *core.ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantField {
					t.Errorf("decodeJSON() field = %v, want %q", err, tt.wantField)
				}
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "42", want: 42},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.SetPathValue("id", tt.raw)
			got, err := pathID(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pathID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("pathID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseImportMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    store.ImportMode
		wantErr bool
	}{
		{raw: "", want: store.Merge},
		{raw: "replace", want: store.Replace},
		{raw: "MERGE", want: store.Merge},
		{raw: "append", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseImportMode(url.Values{"mode": {tt.raw}})
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseImportMode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseImportMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
