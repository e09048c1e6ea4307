package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/app"
	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/config"
	"github.com/joshnavoa/zakeke/internal/domain"
)

func main() {
	page := flag.Int("page", 1, "Page number")
	limit := flag.Int("limit", catalog.DefaultLimit, "Page size (max 100)")
	sortField := flag.String("sort", catalog.DefaultSortField, "Sort column")
	order := flag.String("order", "DESC", "ASC or DESC")
	search := flag.String("search", "", "Search name, description and sku")
	flag.Parse()

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

	var out catalog.Outcome[domain.PaginatedResult]
	if strings.TrimSpace(*search) != "" {
		fmt.Printf("🔍 Searching products for %q...\n", *search)
		out = application.Catalog.SearchProducts(ctx, *search, *page, *limit)
	} else {
		fmt.Println("🔍 Fetching products...")
		out = application.Catalog.ListProducts(ctx, catalog.ListParams{
			Page:          *page,
			Limit:         *limit,
			SortField:     *sortField,
			SortDirection: domain.ParseSortDirection(*order),
		})
	}
	if out.Fallback {
		fmt.Fprintf(os.Stderr, "Failed to query products: %v\n", out.Cause)
		os.Exit(1)
	}

	res := out.Value
	fmt.Printf("Page %d/%d (%d total)\n\n", res.Page, res.TotalPages, res.Total)
	for _, p := range res.Items {
		stock := "-"
		if p.Stock != nil {
			stock = fmt.Sprintf("%d", *p.Stock)
		}
		fmt.Printf("  %-12s %-40s %10s %s  stock=%s  customizable=%t\n",
			p.ID, truncate(p.Name, 40), decimal.NewFromFloat(p.Price).StringFixed(2), p.Currency, stock, p.Customizable)
	}
	if len(res.Items) == 0 {
		fmt.Println("  (no products)")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
