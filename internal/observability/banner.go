package observability

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// PrintBanner prints the startup banner, fit to the terminal width.
func PrintBanner() {
	width := termWidth()
	if width > 72 {
		width = 72
	}
	rule := strings.Repeat("─", width)
	fmt.Println(colorCyan + rule + colorReset)
	fmt.Println(colorBold + "  WAYFARER :: AI travel planning workflow" + colorReset)
	fmt.Printf("  go %s · %s/%s\n", strings.TrimPrefix(runtime.Version(), "go"), runtime.GOOS, runtime.GOARCH)
	fmt.Println(colorCyan + rule + colorReset)
}

// Uptime reports how long the process has been running.
func Uptime() time.Duration {
	return time.Since(startTime).Round(time.Second)
}
