package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/app"
	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/config"
)

func main() {
	envFile := flag.String("env", "", "Optional .env file loaded before the environment is read")
	limit := flag.Int("limit", 5, "Number of sample products to fetch")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	fmt.Println("Testing catalog store connection...")
	fmt.Printf("   Driver: %s\n", cfg.Store.Driver)
	fmt.Printf("   Table:  %s\n", cfg.Store.ProductsTable)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if !application.Catalog.Configured() {
		fmt.Fprintln(os.Stderr, "❌ No store configured (set SUPABASE_URL/SUPABASE_ANON_KEY, DB_HOST or CATALOG_SEED_FILE)")
		os.Exit(1)
	}

	out := application.Catalog.ListProducts(ctx, catalog.ListParams{Limit: *limit})
	if out.Fallback {
		fmt.Fprintf(os.Stderr, "❌ Query failed: %v\n", out.Cause)
		os.Exit(1)
	}

	fmt.Println("✅ Connection successful!")
	fmt.Printf("   Total products:  %d\n", out.Value.Total)
	fmt.Printf("   Sample products: %d\n", len(out.Value.Items))

	if len(out.Value.Items) == 0 {
		fmt.Printf("⚠️  No products found in %s\n", cfg.Store.ProductsTable)
		return
	}

	sample := out.Value.Items[0]
	data, _ := json.MarshalIndent(sample, "", "  ")
	fmt.Println("\nSample product (normalized):")
	fmt.Println(string(data))

	fmt.Println("\nRequired fields:")
	check("id", sample.ID != "")
	check("name", sample.Name != "" && sample.Name != "Unnamed Product")
	check("price", sample.Price > 0)
	check("image", sample.Image != "")
}

func check(field string, ok bool) {
	mark := "✅"
	if !ok {
		mark = "❌ MISSING"
	}
	fmt.Printf("   %-6s %s\n", field+":", mark)
}
