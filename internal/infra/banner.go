package infra

import (
	"fmt"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner. Order mutations always hit the
// live exchange, so the warning is unconditional.
func PrintBanner(cfg *Config) {
	name := cfg.App.Name
	if name == "" {
		name = AppName
	}

	fmt.Println("==========================================")
	fmt.Printf("  %s%s%s v%s\n", ColorCyan, name, ColorReset, cfg.App.Version)
	fmt.Printf("  server: %s\n", cfg.Server.RestURL)
	fmt.Printf("  %sLIVE ORDER MUTATIONS: cancels and creates are real%s\n", ColorRed, ColorReset)
	fmt.Println("==========================================")
}
