package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joshnavoa/zakeke/internal/api/middleware"
)

func main() {
	secretFlag := flag.String("secret", "", "Zakeke secret to hash for ZAKEKE_API_KEY_BCRYPT")
	flag.Parse()

	secret := *secretFlag
	if secret == "" && flag.NArg() >= 1 {
		secret = flag.Arg(0)
	}
	// Trim so the hash matches what Basic Auth carries
	secret = strings.TrimSpace(secret)
	if secret == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/hash-secret/main.go --secret \"your-zakeke-secret\"")
		fmt.Println("  go run cmd/hash-secret/main.go \"your-zakeke-secret\"")
		os.Exit(1)
	}

	hash, err := middleware.HashAPIKey(secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash secret: %v\n", err)
		os.Exit(1)
	}

	if !middleware.VerifyAPIKey(secret, hash) {
		fmt.Fprintln(os.Stderr, "Hash verification failed")
		os.Exit(1)
	}

	fmt.Println("Add this to your environment (and drop ZAKEKE_API_KEY from the catalog host if it is not needed upstream):")
	fmt.Printf("ZAKEKE_API_KEY_BCRYPT=%s\n", hash)
}
