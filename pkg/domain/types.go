package domain

// Record shapes returned by the school library endpoint. JSON tags follow the
// remote's spreadsheet column names, which mix Indonesian and snake_case; they
// are normalized to Go names here and nowhere else.

type BookStatus string

const (
	BookAvailable BookStatus = "tersedia"
	BookBorrowed  BookStatus = "dipinjam"
	BookLost      BookStatus = "hilang"
)

type Book struct {
	Barcode      string     `json:"Barcode"`
	Title        string     `json:"Judul_Buku"`
	Author       string     `json:"Pengarang"`
	Publisher    string     `json:"Penerbit,omitempty"`
	Year         string     `json:"Tahun_Terbit,omitempty"`
	DDCCode      string     `json:"DDC_Code,omitempty"`
	CategoryPath string     `json:"Category_Path,omitempty"`
	BookType     string     `json:"Jenis_Buku,omitempty"`
	Status       BookStatus `json:"status,omitempty"`
	LoanCount    int        `json:"loan_count,omitempty"`
}

type Student struct {
	NIS    string `json:"NIS"`
	Name   string `json:"Nama"`
	Class  string `json:"Kelas,omitempty"`
	Status string `json:"status,omitempty"`
}

type Loan struct {
	ID         string `json:"id,omitempty"`
	Barcode    string `json:"Barcode"`
	BookTitle  string `json:"Judul_Buku,omitempty"`
	NIS        string `json:"NIS"`
	BorrowedAt string `json:"Tanggal_Pinjam,omitempty"`
	DueAt      string `json:"Jatuh_Tempo,omitempty"`
	ReturnedAt string `json:"Tanggal_Kembali,omitempty"`
	Status     string `json:"status,omitempty"`
	Overdue    bool   `json:"is_overdue,omitempty"`
}

// Statistics is the public homepage counter set.
type Statistics struct {
	TotalBooks         int `json:"total_books"`
	TotalMembers       int `json:"total_members"`
	ActiveStudents     int `json:"active_students"`
	ActiveLoans        int `json:"active_loans"`
	AvailableExemplars int `json:"available_exemplars"`
}

// AdminStatistics is the richer report set behind authentication.
type AdminStatistics struct {
	Statistics
	OverdueLoans  int     `json:"overdue_loans"`
	ReturnedToday int     `json:"returned_today"`
	TotalFines    float64 `json:"total_fines"`
}

// DDCNode is one entry of the Dewey classification tree.
type DDCNode struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	ParentID string `json:"parentId,omitempty"`
	Count    int    `json:"book_count,omitempty"`
}

// CategoryOption is one selectable entry of the OPAC category filter.
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count,omitempty"`
}

// StudentLoanContext bundles a student with their current loan standing,
// as shown on the public "status peminjaman" lookup.
type StudentLoanContext struct {
	Student     Student `json:"student"`
	ActiveLoans []Loan  `json:"active_loans"`
	OverdueDays int     `json:"overdue_days,omitempty"`
	FineTotal   float64 `json:"fine_total,omitempty"`
}
