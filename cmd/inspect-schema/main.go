package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/app"
	"github.com/joshnavoa/zakeke/internal/config"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	fmt.Printf("🔍 Fetching schema from %s table...\n\n", cfg.Store.ProductsTable)

	report, err := application.Catalog.InspectSchema(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			fmt.Println("⚠️  No products found in table. Add at least one product to see its columns.")
			return
		}
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Column Names:")
	fmt.Println("=============")
	for i, col := range report.Columns {
		fmt.Printf("%2d. %-24s %-8s %s\n", i+1, col.Name, col.Type, col.Sample)
	}

	fmt.Println("\nSuggested mappings:")
	fields := make([]string, 0, len(report.SuggestedMappings))
	for f := range report.SuggestedMappings {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Printf("   %-12s <- %s\n", f, report.SuggestedMappings[f])
	}

	data, _ := json.MarshalIndent(report.Normalized, "", "  ")
	fmt.Println("\nNormalized sample:")
	fmt.Println(string(data))
}
