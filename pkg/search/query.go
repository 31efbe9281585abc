// Package search translates OPAC filter state into dispatcher parameters
// and adapts every paginated backend response into one canonical page
// shape.
package search

import (
	"encoding/json"
	"strconv"

	"github.com/sdnegeri1godegan/library/pkg/api"
	"github.com/sdnegeri1godegan/library/pkg/domain"
)

// Filter defaults. A field at its default means "no constraint" and is
// omitted from the outgoing request; the backend treats an absent key the
// same way.
const (
	DefaultPageSize = 20
	SentinelAll     = "all"
	DefaultSortKey  = "relevance"
	DefaultSortDir  = "asc"
)

// Field names accepted by WithFilter.
type Field string

const (
	FieldFreeText Field = "query"
	FieldCategory Field = "category"
	FieldBookType Field = "bookType"
	FieldStatus   Field = "status"
	FieldSortKey  Field = "sortBy"
	FieldSortDir  Field = "sortOrder"
)

// Query is the UI-level filter state of one search box. The zero value
// behaves like NewQuery().
type Query struct {
	FreeText string
	Category string
	BookType string
	Status   string
	SortKey  string
	SortDir  string
	Page     int
	PageSize int
}

// NewQuery returns the "no filter" query: first page, default size, every
// filter at its sentinel.
func NewQuery() Query {
	return Query{
		Category: SentinelAll,
		BookType: SentinelAll,
		Status:   SentinelAll,
		SortKey:  DefaultSortKey,
		SortDir:  DefaultSortDir,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

func (q Query) normalized() Query {
	if q.Category == "" {
		q.Category = SentinelAll
	}
	if q.BookType == "" {
		q.BookType = SentinelAll
	}
	if q.Status == "" {
		q.Status = SentinelAll
	}
	if q.SortKey == "" {
		q.SortKey = DefaultSortKey
	}
	if q.SortDir == "" {
		q.SortDir = DefaultSortDir
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Params emits only the fields that differ from the no-filter default.
func (q Query) Params() map[string]string {
	q = q.normalized()
	params := map[string]string{}
	if q.FreeText != "" {
		params[string(FieldFreeText)] = q.FreeText
	}
	if q.Category != SentinelAll {
		params[string(FieldCategory)] = q.Category
	}
	if q.BookType != SentinelAll {
		params[string(FieldBookType)] = q.BookType
	}
	if q.Status != SentinelAll {
		params[string(FieldStatus)] = q.Status
	}
	if q.SortKey != DefaultSortKey {
		params[string(FieldSortKey)] = q.SortKey
	}
	if q.SortDir != DefaultSortDir {
		params[string(FieldSortDir)] = q.SortDir
	}
	if q.Page > 1 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.PageSize != DefaultPageSize {
		params["pageSize"] = strconv.Itoa(q.PageSize)
	}
	return params
}

// WithFilter returns a copy with one filter field updated and the page
// reset to 1. The receiver is never mutated, so UI state transitions stay
// undoable. Unknown fields leave the query untouched.
func (q Query) WithFilter(field Field, value string) Query {
	out := q.normalized()
	switch field {
	case FieldFreeText:
		out.FreeText = value
	case FieldCategory:
		out.Category = value
	case FieldBookType:
		out.BookType = value
	case FieldStatus:
		out.Status = value
	case FieldSortKey:
		out.SortKey = value
	case FieldSortDir:
		out.SortDir = value
	default:
		return q
	}
	if out.Category == "" {
		out.Category = SentinelAll
	}
	if out.BookType == "" {
		out.BookType = SentinelAll
	}
	if out.Status == "" {
		out.Status = SentinelAll
	}
	out.Page = 1
	return out
}

// WithPage returns a copy on the requested page, clamped to
// [1, knownPages]. The remote's page count can shift between requests, so
// an out-of-range page is over-fetched rather than rejected. knownPages
// < 1 means the count is not known yet and only the lower bound applies.
func (q Query) WithPage(page, knownPages int) Query {
	out := q.normalized()
	if page < 1 {
		page = 1
	}
	if knownPages >= 1 && page > knownPages {
		page = knownPages
	}
	out.Page = page
	return out
}

// PageResult is the canonical page shape every backend response is
// adapted into, whatever pagination metadata it carried.
type PageResult struct {
	Items      []domain.Book
	TotalCount int
	Page       int
	PageCount  int
	HasPrev    bool
	HasNext    bool
}

type pageMeta struct {
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	Total   int   `json:"total"`
	HasPrev *bool `json:"has_prev"`
	HasNext *bool `json:"has_next"`
}

// BuildPageResult adapts a getBooksWithFilters envelope. Short result
// sets may come back as a bare array or without pagination metadata; a
// single page is synthesized in that case.
func BuildPageResult(q Query, env api.Envelope) (PageResult, error) {
	if !env.Success {
		return PageResult{}, env.Decode(nil)
	}
	q = q.normalized()

	var payload struct {
		Data       []domain.Book `json:"data"`
		Pagination *pageMeta     `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		var items []domain.Book
		if err2 := json.Unmarshal(env.Data, &items); err2 != nil {
			return PageResult{}, &api.RemoteError{
				Message: "Respons server tidak dikenali",
				Details: err.Error(),
				Code:    api.CodeProtocol,
			}
		}
		return singlePage(items), nil
	}
	if payload.Pagination == nil {
		return singlePage(payload.Data), nil
	}

	meta := payload.Pagination
	page := meta.Page
	if page < 1 {
		page = q.Page
	}
	total := meta.Total
	if total < len(payload.Data) {
		total = len(payload.Data)
	}
	pages := meta.Pages
	if pages < 1 {
		pages = (total + q.PageSize - 1) / q.PageSize
	}
	if pages < 1 {
		pages = 1
	}

	result := PageResult{
		Items:      payload.Data,
		TotalCount: total,
		Page:       page,
		PageCount:  pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	if meta.HasPrev != nil {
		result.HasPrev = *meta.HasPrev
	}
	if meta.HasNext != nil {
		result.HasNext = *meta.HasNext
	}
	return result, nil
}

func singlePage(items []domain.Book) PageResult {
	return PageResult{
		Items:      items,
		TotalCount: len(items),
		Page:       1,
		PageCount:  1,
	}
}
