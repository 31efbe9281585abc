package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sdnegeri1godegan/library/pkg/domain"
)

// ErrValidation marks input rejected before any network call was made.
var ErrValidation = errors.New("input tidak lengkap")

// LoginResult is the credential grant returned by the remote authenticator.
type LoginResult struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Login exchanges credentials for a session token. The token is not
// persisted here; session.Manager owns that.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: username dan password harus diisi", ErrValidation)
	}
	env := c.Call(ctx, "login", map[string]string{
		"username": username,
		"password": password,
	}, CallOptions{})
	var res LoginResult
	if err := env.Decode(&res); err != nil {
		return LoginResult{}, err
	}
	if res.SessionID == "" {
		return LoginResult{}, &RemoteError{Message: msgProtocol, Details: "login response has no sessionId", Code: CodeProtocol}
	}
	if res.Username == "" {
		res.Username = username
	}
	return res, nil
}

// Logout invalidates a session token on the remote side. The token is
// passed explicitly so the caller can clear local state regardless.
func (c *Client) Logout(ctx context.Context, token string) error {
	env := c.Call(ctx, "logout", map[string]string{"sessionId": token}, CallOptions{})
	return env.Decode(nil)
}

// ValidateSession asks the remote whether a token is still accepted.
func (c *Client) ValidateSession(ctx context.Context, token string) (bool, error) {
	env := c.Call(ctx, "validateSession", map[string]string{"sessionId": token}, CallOptions{})
	var res struct {
		Valid bool `json:"valid"`
	}
	if err := env.Decode(&res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

// RealTimeStatistics returns the public homepage counters.
func (c *Client) RealTimeStatistics(ctx context.Context) (domain.Statistics, error) {
	env := c.Call(ctx, "getRealTimeStatistics", nil, CallOptions{})
	var stats domain.Statistics
	if err := env.Decode(&stats); err != nil {
		return domain.Statistics{}, err
	}
	return stats, nil
}

// BooksWithFilters runs the paginated catalog search. The raw envelope is
// returned so search.BuildPageResult can adapt the pagination metadata.
func (c *Client) BooksWithFilters(ctx context.Context, params map[string]string) Envelope {
	return c.Call(ctx, "getBooksWithFilters", params, CallOptions{})
}

// BookByBarcode fetches one catalog record.
func (c *Client) BookByBarcode(ctx context.Context, barcode string) (domain.Book, error) {
	if strings.TrimSpace(barcode) == "" {
		return domain.Book{}, fmt.Errorf("%w: barcode harus diisi", ErrValidation)
	}
	env := c.Call(ctx, "getBookByBarcode", map[string]string{"barcode": barcode}, CallOptions{})
	var book domain.Book
	if err := env.Decode(&book); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// CategoryFilterOptions lists the selectable OPAC category filters.
func (c *Client) CategoryFilterOptions(ctx context.Context) ([]domain.CategoryOption, error) {
	return DecodeCategoryOptions(c.Call(ctx, "getCategoryFilterOptions", nil, CallOptions{}))
}

// DecodeCategoryOptions extracts filter options from a
// getCategoryFilterOptions envelope, which nests them under
// options.all_categories on current backends and used to be a bare array.
// Exported so cached envelopes can be decoded the same way.
func DecodeCategoryOptions(env Envelope) ([]domain.CategoryOption, error) {
	var wrapped struct {
		Options struct {
			AllCategories []domain.CategoryOption `json:"all_categories"`
		} `json:"options"`
	}
	if err := env.Decode(&wrapped); err == nil && len(wrapped.Options.AllCategories) > 0 {
		return wrapped.Options.AllCategories, nil
	}
	var options []domain.CategoryOption
	if err := decodeSlice(env, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// DDCHierarchy returns one level of the Dewey classification tree. Both
// arguments are optional; empty values request the root level.
func (c *Client) DDCHierarchy(ctx context.Context, level, parentID string) ([]domain.DDCNode, error) {
	env := c.Call(ctx, "getDDCHierarchy", map[string]string{
		"level":    level,
		"parentId": parentID,
	}, CallOptions{})
	var nodes []domain.DDCNode
	if err := decodeSlice(env, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// BooksByCategory lists books under one classification node.
func (c *Client) BooksByCategory(ctx context.Context, categoryID string) ([]domain.Book, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, fmt.Errorf("%w: kategori harus dipilih", ErrValidation)
	}
	env := c.Call(ctx, "getBooksByCategory", map[string]string{"categoryId": categoryID}, CallOptions{})
	var books []domain.Book
	if err := decodeSlice(env, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// StudentLoanContext looks up a student's loan standing by NIS.
func (c *Client) StudentLoanContext(ctx context.Context, nis string) (domain.StudentLoanContext, error) {
	if strings.TrimSpace(nis) == "" {
		return domain.StudentLoanContext{}, fmt.Errorf("%w: NIS harus diisi", ErrValidation)
	}
	env := c.Call(ctx, "getStudentLoanContext", map[string]string{"nis": nis}, CallOptions{})
	var sc domain.StudentLoanContext
	if err := env.Decode(&sc); err != nil {
		return domain.StudentLoanContext{}, err
	}
	return sc, nil
}

// AllBooks returns the whole public catalog.
func (c *Client) AllBooks(ctx context.Context) ([]domain.Book, error) {
	env := c.Call(ctx, "getAllBooks", nil, CallOptions{})
	var books []domain.Book
	if err := decodeSlice(env, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// AllStudents lists registered students. Authenticated.
func (c *Client) AllStudents(ctx context.Context) ([]domain.Student, error) {
	env := c.Call(ctx, "getAllStudents", nil, CallOptions{Authenticated: true})
	var students []domain.Student
	if err := decodeSlice(env, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// ActiveLoans lists loans that are currently out. Authenticated.
func (c *Client) ActiveLoans(ctx context.Context) ([]domain.Loan, error) {
	env := c.Call(ctx, "getActiveLoans", nil, CallOptions{Authenticated: true})
	var loans []domain.Loan
	if err := decodeSlice(env, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// OverdueLoans lists loans past their due date. Authenticated.
func (c *Client) OverdueLoans(ctx context.Context) ([]domain.Loan, error) {
	env := c.Call(ctx, "getOverdueLoans", nil, CallOptions{Authenticated: true})
	var loans []domain.Loan
	if err := decodeSlice(env, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// Statistics returns the staff report counters. Authenticated.
func (c *Client) Statistics(ctx context.Context) (domain.AdminStatistics, error) {
	env := c.Call(ctx, "getStatistics", nil, CallOptions{Authenticated: true})
	var stats domain.AdminStatistics
	if err := env.Decode(&stats); err != nil {
		return domain.AdminStatistics{}, err
	}
	return stats, nil
}

// BookInput is the column set accepted by createBook. Field names map to
// the remote's spreadsheet columns the same way domain.Book does.
type BookInput struct {
	Barcode   string
	Title     string
	Author    string
	Publisher string
	Year      string
	DDCCode   string
	BookType  string
}

// CreateBook registers a new catalog record. Authenticated.
func (c *Client) CreateBook(ctx context.Context, in BookInput) error {
	if strings.TrimSpace(in.Barcode) == "" || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return fmt.Errorf("%w: barcode, judul dan pengarang harus diisi", ErrValidation)
	}
	env := c.Call(ctx, "createBook", map[string]string{
		"Barcode":      in.Barcode,
		"Judul_Buku":   in.Title,
		"Pengarang":    in.Author,
		"Penerbit":     in.Publisher,
		"Tahun_Terbit": in.Year,
		"DDC_Code":     in.DDCCode,
		"Jenis_Buku":   in.BookType,
	}, CallOptions{Authenticated: true})
	return env.Decode(nil)
}

// StudentInput is the column set accepted by createStudent.
type StudentInput struct {
	NIS   string
	Name  string
	Class string
}

// CreateStudent registers a new student. Authenticated.
func (c *Client) CreateStudent(ctx context.Context, in StudentInput) error {
	if strings.TrimSpace(in.NIS) == "" || strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: NIS dan nama harus diisi", ErrValidation)
	}
	env := c.Call(ctx, "createStudent", map[string]string{
		"NIS":   in.NIS,
		"Nama":  in.Name,
		"Kelas": in.Class,
	}, CallOptions{Authenticated: true})
	return env.Decode(nil)
}

// BorrowBook records a loan of one exemplar to one student. Authenticated.
func (c *Client) BorrowBook(ctx context.Context, barcode, nis string) error {
	if strings.TrimSpace(barcode) == "" || strings.TrimSpace(nis) == "" {
		return fmt.Errorf("%w: barcode dan NIS harus diisi", ErrValidation)
	}
	env := c.Call(ctx, "borrowBook", map[string]string{
		"barcode": barcode,
		"nis":     nis,
	}, CallOptions{Authenticated: true})
	return env.Decode(nil)
}

// ReturnBook closes the matching active loan. Authenticated.
func (c *Client) ReturnBook(ctx context.Context, barcode, nis string) error {
	if strings.TrimSpace(barcode) == "" || strings.TrimSpace(nis) == "" {
		return fmt.Errorf("%w: barcode dan NIS harus diisi", ErrValidation)
	}
	env := c.Call(ctx, "returnBook", map[string]string{
		"barcode": barcode,
		"nis":     nis,
	}, CallOptions{Authenticated: true})
	return env.Decode(nil)
}

// decodeSlice tolerates the two list shapes the backend produces: a bare
// JSON array, or an object wrapping the array under data.
func decodeSlice(env Envelope, out any) error {
	if !env.Success {
		return env.Decode(nil)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err == nil {
		return nil
	}
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(env.Data, &wrapped); err == nil && len(wrapped.Data) > 0 {
		if err := json.Unmarshal(wrapped.Data, out); err == nil {
			return nil
		}
	}
	return &RemoteError{Message: msgProtocol, Details: "unexpected list payload", Code: CodeProtocol}
}
