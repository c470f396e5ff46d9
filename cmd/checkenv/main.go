package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"pelican-stonks/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s (%v), checking against defaults\n", *configPath, err)
		cfg = store.Default()
	}

	os.Exit(report(cfg, os.Getenv))
}

// report prints the status of every expected variable and returns the exit code.
func report(cfg *store.Config, getenv func(string) string) int {
	fmt.Println("Checking environment variables...")
	fmt.Println(strings.Repeat("-", 60))

	var missing []store.EnvVar
	missingRequired := false
	for _, v := range store.ExpectedEnv(cfg) {
		status := "✅ SET"
		if strings.TrimSpace(getenv(v.Name)) == "" {
			status = "❌ NOT SET"
			missing = append(missing, v)
			if v.Required {
				missingRequired = true
			}
		}
		req := ""
		if v.Required {
			req = " (required)"
		}
		fmt.Printf("%-24s %-12s %s%s\n", v.Name, status, v.Purpose, req)
	}
	fmt.Println(strings.Repeat("-", 60))

	if len(missing) == 0 {
		fmt.Println("All environment variables are set.")
		return 0
	}

	fmt.Println("\nSample .env entries for the missing variables:")
	for _, v := range missing {
		fmt.Printf("%s=your_%s_here\n", v.Name, strings.ToLower(v.Name))
	}

	if missingRequired {
		return 1
	}
	return 0
}
