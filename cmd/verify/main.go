// Package main provides a CLI tool for verifying journal entry hash chains.
// Exit code 0 means every chain checks out; 1 means corruption was found.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"tally/internal/domain/integrity"
	"tally/internal/infrastructure/storage/postgres"
	"tally/internal/infrastructure/storage/postgres/catalog_repo"
	"tally/internal/infrastructure/storage/postgres/entry_repo"
	"tally/pkg/logger"
)

func main() {
	companyID := flag.Int64("company", 0, "verify all hash-restricted journals of this company")
	journalID := flag.Int64("journal", 0, "verify a single journal")
	output := flag.String("o", "", "write the report to this file (zstd-compressed JSON when the name ends in .zst)")
	flag.Parse()

	if (*companyID == 0) == (*journalID == 0) {
		fmt.Fprintln(os.Stderr, "exactly one of -company or -journal is required")
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: "warn", Development: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	service := integrity.NewService(integrity.ServiceConfig{
		Entries:    entry_repo.NewEntryRepo(txManager),
		Journals:   catalog_repo.NewJournalRepo(txManager),
		Companies:  catalog_repo.NewCompanyRepo(txManager),
		Currencies: catalog_repo.NewCurrencyRepo(txManager),
		TxManager:  txManager,
	})

	var report *integrity.Report
	if *companyID != 0 {
		report, err = service.VerifyCompany(ctx, *companyID)
	} else {
		var chains []integrity.ChainReport
		chains, err = service.VerifyJournal(ctx, *journalID)
		if err == nil {
			report = &integrity.Report{GeneratedAt: time.Now().UTC(), Chains: chains}
		}
	}
	if err != nil {
		log.Fatalw("verification failed", "error", err)
	}

	printReport(report)

	if *output != "" {
		if err := writeReport(*output, report); err != nil {
			log.Fatalw("failed to write report", "path", *output, "error", err)
		}
		fmt.Printf("\nreport written to %s\n", *output)
	}

	if !report.Clean() {
		os.Exit(1)
	}
}

func printReport(report *integrity.Report) {
	for _, c := range report.Chains {
		fmt.Printf("journal %-8s prefix %-16s %-14s", c.JournalCode, chainPrefix(c.Prefix), c.Status)
		switch c.Status {
		case integrity.StatusOK:
			fmt.Printf(" %d entries hashed (%s .. %s)", c.HashedCount, c.FirstName, c.LastName)
		case integrity.StatusCorrupted:
			fmt.Printf(" %s", c.Message)
		}
		fmt.Println()
	}
}

func chainPrefix(p string) string {
	if strings.TrimSpace(p) == "" {
		return "(none)"
	}
	return p
}

func writeReport(path string, report *integrity.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f)
		if err != nil {
			return err
		}
		if err := json.NewEncoder(enc).Encode(report); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	}

	e := json.NewEncoder(f)
	e.SetIndent("", "  ")
	return e.Encode(report)
}
