// Command opac is the public catalog terminal: search, categories,
// statistics and student loan status, no login required.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sdnegeri1godegan/library/internal/config"
	"github.com/sdnegeri1godegan/library/internal/util"
	"github.com/sdnegeri1godegan/library/pkg/api"
	"github.com/sdnegeri1godegan/library/pkg/cache"
	"github.com/sdnegeri1godegan/library/pkg/domain"
	"github.com/sdnegeri1godegan/library/pkg/search"
)

func usage() {
	fmt.Fprintf(os.Stderr, `opac - katalog online perpustakaan SD Negeri 1 Godegan

Usage:
  opac [-config file] <cmd> [args]

Commands:
  stats                                   statistik perpustakaan
  search     [-q text] [-category C] [-type T] [-status S]
             [-sort key] [-dir asc|desc] [-page N] [-size N] [-i]
  categories [-level N] [-parent ID]      pohon klasifikasi DDC
  filters                                 pilihan filter kategori
  book       -barcode <kode>              detail satu buku
  category   -id <kategori>               buku dalam satu kategori
  status     -nis <NIS>                   status peminjaman siswa
  books                                   seluruh katalog
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func main() {
	configPath := flag.String("config", "", "config file path")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	timeout, err := config.ParseDuration(cfg.RequestTimeout, 15*time.Second)
	if err != nil {
		fail(err)
	}
	client := api.NewClient(cfg.APIBaseURL, api.WithTimeout(timeout), api.WithLogger(logger))

	cacheTTL, err := config.ParseDuration(cfg.CacheTTL, cache.DefaultTTL)
	if err != nil {
		fail(err)
	}
	var results cache.Store = cache.NewMemory(cacheTTL)
	if cfg.RedisAddr != "" {
		results = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cacheTTL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "stats":
		env := results.GetOrFetch(ctx, cache.Key("getRealTimeStatistics", nil), func(ctx context.Context) api.Envelope {
			return client.Call(ctx, "getRealTimeStatistics", nil, api.CallOptions{})
		})
		var stats domain.Statistics
		if err := env.Decode(&stats); err != nil {
			fail(err)
		}
		fmt.Printf("Total buku:        %d\n", stats.TotalBooks)
		fmt.Printf("Total anggota:     %d\n", stats.TotalMembers)
		fmt.Printf("Siswa aktif:       %d\n", stats.ActiveStudents)
		fmt.Printf("Sedang dipinjam:   %d\n", stats.ActiveLoans)
		fmt.Printf("Eksemplar tersedia:%d\n", stats.AvailableExemplars)

	case "search":
		cmdSearch(client, cfg, args)

	case "categories":
		fs := flag.NewFlagSet("categories", flag.ExitOnError)
		level := fs.String("level", "", "DDC level")
		parent := fs.String("parent", "", "parent node id")
		_ = fs.Parse(args)
		nodes, err := client.DDCHierarchy(ctx, *level, *parent)
		if err != nil {
			fail(err)
		}
		for _, n := range nodes {
			fmt.Printf("%s%s %s (%d)\n", strings.Repeat("  ", n.Level), n.Code, n.Name, n.Count)
		}

	case "filters":
		env := results.GetOrFetch(ctx, cache.Key("getCategoryFilterOptions", nil), func(ctx context.Context) api.Envelope {
			return client.Call(ctx, "getCategoryFilterOptions", nil, api.CallOptions{})
		})
		options, err := api.DecodeCategoryOptions(env)
		if err != nil {
			fail(err)
		}
		for _, opt := range options {
			fmt.Printf("%-20s %s (%d)\n", opt.Value, opt.Label, opt.Count)
		}

	case "book":
		fs := flag.NewFlagSet("book", flag.ExitOnError)
		barcode := fs.String("barcode", "", "book barcode")
		_ = fs.Parse(args)
		book, err := client.BookByBarcode(ctx, *barcode)
		if err != nil {
			fail(err)
		}
		printJSON(book)

	case "category":
		fs := flag.NewFlagSet("category", flag.ExitOnError)
		id := fs.String("id", "", "category id")
		_ = fs.Parse(args)
		books, err := client.BooksByCategory(ctx, *id)
		if err != nil {
			fail(err)
		}
		printBooks(books)

	case "status":
		fs := flag.NewFlagSet("status", flag.ExitOnError)
		nis := fs.String("nis", "", "student NIS")
		_ = fs.Parse(args)
		sc, err := client.StudentLoanContext(ctx, *nis)
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s (%s) kelas %s\n", sc.Student.Name, sc.Student.NIS, sc.Student.Class)
		if len(sc.ActiveLoans) == 0 {
			fmt.Println("Tidak ada pinjaman aktif")
			break
		}
		for _, loan := range sc.ActiveLoans {
			overdue := ""
			if loan.Overdue {
				overdue = " TERLAMBAT"
			}
			fmt.Printf("  %s %s jatuh tempo %s%s\n", loan.Barcode, loan.BookTitle, loan.DueAt, overdue)
		}
		if sc.FineTotal > 0 {
			fmt.Printf("Denda: Rp%.0f\n", sc.FineTotal)
		}

	case "books":
		books, err := client.AllBooks(ctx)
		if err != nil {
			fail(err)
		}
		printBooks(books)

	default:
		usage()
	}
}

func cmdSearch(client *api.Client, cfg config.FileConfig, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	freeText := fs.String("q", "", "free text")
	category := fs.String("category", "", "category filter")
	bookType := fs.String("type", "", "book type filter")
	status := fs.String("status", "", "status filter (tersedia|dipinjam)")
	sortKey := fs.String("sort", "", "sort key")
	sortDir := fs.String("dir", "", "sort direction")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 0, "page size")
	interactive := fs.Bool("i", false, "interactive mode")
	_ = fs.Parse(args)

	q := search.NewQuery()
	q.FreeText = *freeText
	if *category != "" {
		q = q.WithFilter(search.FieldCategory, *category)
	}
	if *bookType != "" {
		q = q.WithFilter(search.FieldBookType, *bookType)
	}
	if *status != "" {
		q = q.WithFilter(search.FieldStatus, *status)
	}
	if *sortKey != "" {
		q = q.WithFilter(search.FieldSortKey, *sortKey)
	}
	if *sortDir != "" {
		q = q.WithFilter(search.FieldSortDir, *sortDir)
	}
	if *size > 0 {
		q.PageSize = *size
	} else if cfg.PageSize > 0 {
		q.PageSize = cfg.PageSize
	}
	q = q.WithPage(*page, 0)

	if *interactive {
		runInteractive(client, q)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	env := client.BooksWithFilters(ctx, q.Params())
	pageResult, err := search.BuildPageResult(q, env)
	if err != nil {
		fail(err)
	}
	printPage(pageResult)
}

// runInteractive reads one line per "keystroke burst": plain text becomes
// the new free-text filter, :n/:p page through the current result, :q
// quits. Responses are delivered through the sequence-checked searcher so
// a slow earlier query can never clobber a newer result.
func runInteractive(client *api.Client, q search.Query) {
	ctx := context.Background()

	var mu sync.Mutex
	current := q
	knownPages := 0

	searcher := search.NewSearcher(client, func(res search.Result) {
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, res.Err)
			return
		}
		mu.Lock()
		knownPages = res.Page.PageCount
		mu.Unlock()
		printPage(res.Page)
		fmt.Print("> ")
	}, search.WithDebounce(300*time.Millisecond))
	defer searcher.Close()

	searcher.Search(ctx, current)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		mu.Lock()
		switch line {
		case ":q":
			mu.Unlock()
			return
		case ":n":
			current = current.WithPage(current.Page+1, knownPages)
			q := current
			mu.Unlock()
			searcher.Search(ctx, q)
		case ":p":
			current = current.WithPage(current.Page-1, knownPages)
			q := current
			mu.Unlock()
			searcher.Search(ctx, q)
		default:
			current = current.WithFilter(search.FieldFreeText, line)
			q := current
			mu.Unlock()
			searcher.SearchDebounced(ctx, q)
		}
		fmt.Print("> ")
	}
}

func printPage(p search.PageResult) {
	if len(p.Items) == 0 {
		fmt.Println("Tidak ada buku yang ditemukan")
		return
	}
	printBooks(p.Items)
	fmt.Printf("Halaman %d dari %d (total %d hasil)\n", p.Page, p.PageCount, p.TotalCount)
}

func printBooks(books []domain.Book) {
	for _, b := range books {
		status := string(b.Status)
		if status == "" {
			status = "-"
		}
		fmt.Printf("%-12s %-40s %-20s %s\n", b.Barcode, b.Title, b.Author, status)
	}
}
