// Command admin is the staff terminal: login-protected views over books,
// students, loans and reports, plus the circulation and record-creation
// transactions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sdnegeri1godegan/library/internal/config"
	"github.com/sdnegeri1godegan/library/internal/util"
	"github.com/sdnegeri1godegan/library/pkg/api"
	"github.com/sdnegeri1godegan/library/pkg/cache"
	"github.com/sdnegeri1godegan/library/pkg/domain"
	"github.com/sdnegeri1godegan/library/pkg/session"
)

func usage() {
	fmt.Fprintf(os.Stderr, `admin - dasbor petugas perpustakaan SD Negeri 1 Godegan

Usage:
  admin [-config file] <cmd> [args]

Commands:
  login    -u <username> -p <password>
  logout
  whoami
  validate                     cek sesi ke server
  books                        seluruh katalog
  students                     daftar siswa
  loans    [-overdue]          pinjaman aktif / terlambat
  borrow   -barcode <kode> -nis <NIS>    catat peminjaman
  return   -barcode <kode> -nis <NIS>    catat pengembalian
  add-book -barcode <kode> -title <judul> -author <nama>
           [-publisher P] [-year T] [-ddc D] [-type J]
  add-student -nis <NIS> -name <nama> [-class K]
  stats                        laporan statistik
  watch    [-interval dur]     dasbor live (sesi diperpanjang otomatis)
`)
	os.Exit(2)
}

func fail(err error) {
	var remote *api.RemoteError
	if errors.As(err, &remote) && remote.Code == api.CodeNoSession {
		fmt.Fprintln(os.Stderr, "Sesi tidak valid. Silakan login: admin login -u <username> -p <password>")
		os.Exit(1)
	}
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

	var slot session.Slot
	if cfg.SessionBackend == "redis" {
		slot = session.NewRedisSlot(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		fileSlot, err := session.NewFileSlot(cfg.SessionDir)
		if err != nil {
			fail(err)
		}
		slot = fileSlot
	}
	sessionTTL, err := config.ParseDuration(cfg.SessionTTL, 30*time.Minute)
	if err != nil {
		fail(err)
	}
	sessions := session.NewManager(client, slot,
		session.WithTTL(sessionTTL),
		session.WithLogger(logger),
	)
	client.UseSessions(sessions)

	// Mutations below invalidate the same result cache the OPAC terminals
	// read. With the memory backend this only covers this process; the
	// redis backend is what kiosk installs share.
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
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		username := fs.String("u", "", "username")
		password := fs.String("p", "", "password")
		_ = fs.Parse(args)
		sess, err := sessions.Login(ctx, *username, *password)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrCredentialsRejected):
				fmt.Fprintln(os.Stderr, "Username atau password salah")
			case errors.Is(err, session.ErrAuthUnreachable):
				fmt.Fprintln(os.Stderr, "Koneksi ke server gagal")
			default:
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(1)
		}
		fmt.Printf("Login berhasil sebagai %s, sesi sampai %s\n",
			sess.Username, sess.ExpiresAt.Local().Format("15:04"))

	case "logout":
		if err := sessions.Logout(ctx); err != nil {
			fail(err)
		}
		fmt.Println("Logout berhasil")

	case "whoami":
		sess, ok := sessions.Current()
		if !ok {
			fmt.Println("Tidak ada sesi aktif")
			os.Exit(1)
		}
		fmt.Printf("%s (login %s, berlaku sampai %s)\n",
			sess.Username,
			sess.CreatedAt.Local().Format("15:04"),
			sess.ExpiresAt.Local().Format("15:04"))

	case "validate":
		if sessions.Validate(ctx) {
			fmt.Println("Sesi valid")
		} else {
			fmt.Println("Sesi tidak valid")
			os.Exit(1)
		}

	case "books":
		books, err := client.AllBooks(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(books)

	case "students":
		students, err := client.AllStudents(ctx)
		if err != nil {
			fail(err)
		}
		for _, s := range students {
			fmt.Printf("%-12s %-30s %s\n", s.NIS, s.Name, s.Class)
		}

	case "loans":
		fs := flag.NewFlagSet("loans", flag.ExitOnError)
		overdue := fs.Bool("overdue", false, "only overdue loans")
		_ = fs.Parse(args)
		var loans []domain.Loan
		var err error
		if *overdue {
			loans, err = client.OverdueLoans(ctx)
		} else {
			loans, err = client.ActiveLoans(ctx)
		}
		if err != nil {
			fail(err)
		}
		for _, loan := range loans {
			fmt.Printf("%-12s %-30s %-12s jatuh tempo %s\n",
				loan.Barcode, loan.BookTitle, loan.NIS, loan.DueAt)
		}

	case "borrow":
		fs := flag.NewFlagSet("borrow", flag.ExitOnError)
		barcode := fs.String("barcode", "", "book barcode")
		nis := fs.String("nis", "", "student NIS")
		_ = fs.Parse(args)
		if err := client.BorrowBook(ctx, *barcode, *nis); err != nil {
			fail(err)
		}
		// Loan counts feed the cached homepage statistics.
		results.Invalidate(cache.Key("getRealTimeStatistics", nil))
		fmt.Printf("Peminjaman %s oleh %s tercatat\n", *barcode, *nis)

	case "return":
		fs := flag.NewFlagSet("return", flag.ExitOnError)
		barcode := fs.String("barcode", "", "book barcode")
		nis := fs.String("nis", "", "student NIS")
		_ = fs.Parse(args)
		if err := client.ReturnBook(ctx, *barcode, *nis); err != nil {
			fail(err)
		}
		results.Invalidate(cache.Key("getRealTimeStatistics", nil))
		fmt.Printf("Pengembalian %s oleh %s tercatat\n", *barcode, *nis)

	case "add-book":
		fs := flag.NewFlagSet("add-book", flag.ExitOnError)
		in := api.BookInput{}
		fs.StringVar(&in.Barcode, "barcode", "", "book barcode")
		fs.StringVar(&in.Title, "title", "", "title")
		fs.StringVar(&in.Author, "author", "", "author")
		fs.StringVar(&in.Publisher, "publisher", "", "publisher")
		fs.StringVar(&in.Year, "year", "", "publication year")
		fs.StringVar(&in.DDCCode, "ddc", "", "DDC code")
		fs.StringVar(&in.BookType, "type", "", "book type")
		_ = fs.Parse(args)
		if err := client.CreateBook(ctx, in); err != nil {
			fail(err)
		}
		// A new record shifts category counts and filter options too.
		results.InvalidateAll()
		fmt.Printf("Buku %s ditambahkan\n", in.Barcode)

	case "add-student":
		fs := flag.NewFlagSet("add-student", flag.ExitOnError)
		in := api.StudentInput{}
		fs.StringVar(&in.NIS, "nis", "", "student NIS")
		fs.StringVar(&in.Name, "name", "", "student name")
		fs.StringVar(&in.Class, "class", "", "class")
		_ = fs.Parse(args)
		if err := client.CreateStudent(ctx, in); err != nil {
			fail(err)
		}
		results.Invalidate(cache.Key("getRealTimeStatistics", nil))
		fmt.Printf("Siswa %s ditambahkan\n", in.NIS)

	case "stats":
		stats, err := client.Statistics(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(stats)

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		interval := fs.Duration("interval", 30*time.Second, "poll interval")
		_ = fs.Parse(args)
		watch(client, sessions, cfg, *interval)

	default:
		usage()
	}
}

// watch polls the report counters until interrupted. The session is
// extended in the background so a dashboard left open does not log the
// operator out mid-shift.
func watch(client *api.Client, sessions *session.Manager, cfg config.FileConfig, interval time.Duration) {
	if !sessions.Authenticated() {
		fail(&api.RemoteError{Message: "Sesi tidak valid", Code: api.CodeNoSession})
	}

	refreshInterval, err := config.ParseDuration(cfg.RefreshInterval, 10*time.Minute)
	if err != nil {
		fail(err)
	}
	refresher := session.StartRefresher(sessions, refreshInterval, nil)
	defer refresher.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	show := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		stats, err := client.Statistics(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Printf("[%s] dipinjam=%d terlambat=%d kembali hari ini=%d denda=Rp%.0f\n",
			time.Now().Format("15:04:05"),
			stats.ActiveLoans, stats.OverdueLoans, stats.ReturnedToday, stats.TotalFines)
	}

	show()
	for {
		select {
		case <-ticker.C:
			show()
		case <-stop:
			fmt.Println()
			return
		}
	}
}
