package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"bookstore-ledger/bookstore"
	"bookstore-ledger/config"
)

// import_catalog adds the items of a YAML catalog to the configured data file.
//
//	import_catalog catalog.yaml
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: import_catalog <catalog.yaml>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}
	lvl, err := cfg.Level()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	format, err := bookstore.FormatForPath(cfg.DataFile)
	if cfg.Format != "" {
		format, err = bookstore.ParseFormat(cfg.Format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	catalog, err := bookstore.LoadSeedFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog: %v\n", err)
		os.Exit(1)
	}

	name := cfg.Name
	if name == "" {
		name = catalog.Name
	}
	if name == "" {
		name = "Bookstore"
	}
	store := bookstore.New(name, bookstore.WithLogger(logger))
	if err := store.Load(cfg.DataFile, format); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", cfg.DataFile, err)
			os.Exit(1)
		}
		fmt.Printf("%s does not exist yet, starting a new store.\n", cfg.DataFile)
	}

	fmt.Printf("Importing %d items from %s...\n", len(catalog.Items), os.Args[1])

	successCount := 0
	errorCount := 0

	for _, entry := range catalog.Items {
		fmt.Printf("Importing: %s by %s... ", entry.Title, entry.Author)

		it, err := bookstore.NewItem(entry.Title, entry.Author, entry.Category, entry.Price, entry.Quantity, entry.Year)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		stored, merged, err := store.AddItem(bookstore.Explicit(entry.ID), it)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}

		if merged {
			fmt.Printf("RESTOCKED (ID: %d, quantity: %d)\n", stored.ID, stored.Quantity)
		} else {
			fmt.Printf("SUCCESS (ID: %d)\n", stored.ID)
		}
		successCount++
	}

	if successCount > 0 {
		if err := store.Save(cfg.DataFile, format); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving %s: %v\n", cfg.DataFile, err)
			os.Exit(1)
		}
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d items\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Println("\nItems in store:")
		fmt.Printf("%-5s %-50s %-30s %6s\n", "ID", "Title", "Author", "Qty")
		fmt.Println(strings.Repeat("-", 94))
		for _, it := range store.Items() {
			fmt.Printf("%-5d %-50s %-30s %6d\n", it.ID, truncateString(it.Title, 50), truncateString(it.Author, 30), it.Quantity)
		}
	}
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
