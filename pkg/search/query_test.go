package search

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/sdnegeri1godegan/library/pkg/api"
)

func TestParamsOmitsDefaults(t *testing.T) {
	if params := NewQuery().Params(); len(params) != 0 {
		t.Fatalf("no-filter query must emit no params, got %v", params)
	}

	q := NewQuery()
	q.FreeText = "matematika"
	q.Category = "500"
	q.Page = 2
	params := q.Params()
	want := map[string]string{"query": "matematika", "category": "500", "page": "2"}
	if len(params) != len(want) {
		t.Fatalf("params = %v, want %v", params, want)
	}
	for k, v := range want {
		if params[k] != v {
			t.Fatalf("params[%q] = %q, want %q", k, params[k], v)
		}
	}
}

func TestParamsZeroValueBehavesLikeNewQuery(t *testing.T) {
	var zero Query
	if params := zero.Params(); len(params) != 0 {
		t.Fatalf("zero query must normalize to the default, got %v", params)
	}
}

func TestWithFilterIsPureAndResetsPage(t *testing.T) {
	base := NewQuery().WithPage(3, 5)

	next := base.WithFilter(FieldCategory, "500")
	if base.Page != 3 || base.Category != SentinelAll {
		t.Fatalf("receiver mutated: %+v", base)
	}
	if next.Category != "500" || next.Page != 1 {
		t.Fatalf("filter change must land on page 1, got %+v", next)
	}

	// Clearing a filter restores the sentinel.
	cleared := next.WithFilter(FieldCategory, "")
	if cleared.Category != SentinelAll {
		t.Fatalf("empty filter value must mean no constraint, got %q", cleared.Category)
	}
	if _, ok := cleared.Params()[string(FieldCategory)]; ok {
		t.Fatal("sentinel category must be omitted from params")
	}

	if got := base.WithFilter(Field("bogus"), "x"); got != base {
		t.Fatalf("unknown field must leave the query untouched, got %+v", got)
	}
}

func TestWithPageClamps(t *testing.T) {
	q := NewQuery()
	if got := q.WithPage(999, 3).Page; got != 3 {
		t.Fatalf("page past the end must clamp to the last page, got %d", got)
	}
	if got := q.WithPage(0, 3).Page; got != 1 {
		t.Fatalf("page below 1 must clamp to 1, got %d", got)
	}
	if got := q.WithPage(7, 0).Page; got != 7 {
		t.Fatalf("unknown page count must only apply the lower bound, got %d", got)
	}
}

func TestBuildPageResultComputesPageCount(t *testing.T) {
	env := api.Envelope{Success: true, Data: json.RawMessage(
		`{"data":[{"Barcode":"B001","Judul_Buku":"A"}],"pagination":{"page":1,"total":45}}`,
	)}
	res, err := BuildPageResult(NewQuery(), env)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.TotalCount != 45 || res.PageCount != 3 {
		t.Fatalf("45 records at size 20 must span 3 pages, got %+v", res)
	}
	if !res.HasNext || res.HasPrev {
		t.Fatalf("page 1 of 3 navigation wrong: %+v", res)
	}
}

func TestBuildPageResultHonorsRemoteMeta(t *testing.T) {
	env := api.Envelope{Success: true, Data: json.RawMessage(
		`{"data":[],"pagination":{"page":2,"pages":4,"total":61,"has_prev":true,"has_next":false}}`,
	)}
	res, err := BuildPageResult(NewQuery(), env)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Page != 2 || res.PageCount != 4 || res.TotalCount != 61 {
		t.Fatalf("remote metadata lost: %+v", res)
	}
	if !res.HasPrev || res.HasNext {
		t.Fatalf("explicit has_prev/has_next must win, got %+v", res)
	}
}

func TestBuildPageResultBareArray(t *testing.T) {
	env := api.Envelope{Success: true, Data: json.RawMessage(
		`[{"Barcode":"B001","Judul_Buku":"A"},{"Barcode":"B002","Judul_Buku":"B"}]`,
	)}
	res, err := BuildPageResult(NewQuery(), env)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Items) != 2 || res.Page != 1 || res.PageCount != 1 || res.TotalCount != 2 {
		t.Fatalf("bare array must synthesize a single page, got %+v", res)
	}
}

func TestBuildPageResultMissingPagination(t *testing.T) {
	env := api.Envelope{Success: true, Data: json.RawMessage(
		`{"data":[{"Barcode":"B001","Judul_Buku":"A"}]}`,
	)}
	res, err := BuildPageResult(NewQuery(), env)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.PageCount != 1 || res.TotalCount != 1 {
		t.Fatalf("missing pagination must synthesize a single page, got %+v", res)
	}
}

func TestBuildPageResultFailureEnvelope(t *testing.T) {
	env := api.Envelope{Err: &api.RemoteError{Message: "Koneksi ke server gagal", Code: api.CodeTransport}}
	_, err := BuildPageResult(NewQuery(), env)
	var remote *api.RemoteError
	if !errors.As(err, &remote) || remote.Code != api.CodeTransport {
		t.Fatalf("failure envelope must surface its RemoteError, got %v", err)
	}
}
