package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"racebank/pkg/bank"
	"racebank/pkg/gateway"
	"racebank/pkg/guard"
	"racebank/pkg/logging"
	"racebank/pkg/simulator"
	"racebank/pkg/teller"
	"racebank/pkg/ui"
)

type Configuration struct {
	InitialBalance string
	Amount         string
	Tellers        int
	Delay          time.Duration
	AllowOverdraft bool
	DemoMode       bool
	HTTPAddr       string
	LogPath        string
	LogLevel       string
}

func main() {
	config := parseArguments()

	if err := logging.Init(logging.Config{
		Level:      logging.LogLevel(config.LogLevel),
		OutputPath: config.LogPath,
		Format:     "text",
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	b, initial, amount, err := openBank(config)
	if err != nil {
		log.Fatalf("Failed to open bank: %v", err)
	}

	if config.DemoMode {
		if err := runDemoMode(b, config.Tellers, amount, initial); err != nil {
			log.Fatalf("Demo mode failed: %v", err)
		}
		return
	}

	if config.HTTPAddr != "" {
		startGateway(b, config.HTTPAddr)
		return
	}

	showSplashScreen()
	if err := startInteractiveMode(b, config.Tellers, amount); err != nil {
		log.Fatalf("Failed to start UI: %v", err)
	}
}

// parseArguments processes command-line flags
func parseArguments() Configuration {
	var config Configuration

	flag.StringVar(&config.InitialBalance, "balance", "1000", "Opening account balance")
	flag.StringVar(&config.Amount, "amount", "100", "Per-request amount for stress runs and interactive calls")
	flag.IntVar(&config.Tellers, "tellers", 10, "Concurrent tellers per stress run")
	flag.DurationVar(&config.Delay, "delay", 50*time.Millisecond, "Race-widening pause between read and write")
	flag.BoolVar(&config.AllowOverdraft, "allow-overdraft", false, "Allow withdrawals past zero")
	flag.BoolVar(&config.DemoMode, "demo", false, "Run the canonical protected-vs-unsafe contrast and exit")
	flag.StringVar(&config.HTTPAddr, "http", "", "Serve the JSON gateway on this address instead of the TUI")
	flag.StringVar(&config.LogPath, "log", "", "Log file path (default stdout)")
	flag.StringVar(&config.LogLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARN, ERROR")

	flag.Parse()

	return config
}

func openBank(config Configuration) (*bank.Bank, decimal.Decimal, decimal.Decimal, error) {
	initial, err := decimal.NewFromString(config.InitialBalance)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("invalid -balance: %w", err)
	}
	amount, err := decimal.NewFromString(config.Amount)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("invalid -amount: %w", err)
	}

	b, err := bank.New(bank.Config{
		InitialBalance: initial,
		Delay:          config.Delay,
		AllowOverdraft: config.AllowOverdraft,
		Mode:           guard.ModeProtected,
	})
	return b, initial, amount, err
}

// showSplashScreen displays the welcome banner
func showSplashScreen() {
	splash := `
╔══════════════════════════════════════════════════════╗
║                                                      ║
║   ██████╗  █████╗  ██████╗███████╗                   ║
║   ██╔══██╗██╔══██╗██╔════╝██╔════╝                   ║
║   ██████╔╝███████║██║     █████╗                     ║
║   ██╔══██╗██╔══██║██║     ██╔══╝                     ║
║   ██║  ██║██║  ██║╚██████╗███████╗                   ║
║   ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚══════╝                   ║
║   ██████╗  █████╗ ███╗   ██╗██╗  ██╗                 ║
║   ██╔══██╗██╔══██╗████╗  ██║██║ ██╔╝                 ║
║   ██████╔╝███████║██╔██╗ ██║█████╔╝                  ║
║   ██╔══██╗██╔══██║██║╚██╗██║██╔═██╗                  ║
║   ██████╔╝██║  ██║██║ ╚████║██║  ██╗                 ║
║   ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝                 ║
║                                                      ║
║   One account. Many tellers. One mutex (optional).   ║
╚══════════════════════════════════════════════════════╝
`

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	fmt.Println(style.Render(splash))
	time.Sleep(1 * time.Second)
}

// startInteractiveMode launches the Bubble Tea UI
func startInteractiveMode(b *bank.Bank, tellers int, amount decimal.Decimal) error {
	model := ui.NewModel(b, ui.Options{Tellers: tellers, Amount: amount})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %v", err)
	}

	return nil
}

// startGateway serves the JSON API
func startGateway(b *bank.Bank, addr string) {
	srv := gateway.NewServer(b)
	logging.WithComponent("gateway").Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		log.Fatal(err)
	}
}

// runDemoMode fires the same request set twice, first behind the mutex and
// then unguarded, and prints both reports for contrast.
func runDemoMode(b *bank.Bank, tellers int, amount, initial decimal.Decimal) error {
	fmt.Println("\n🎮 Demo: identical stress runs, with and without the mutex")

	ctx := context.Background()
	for _, mode := range []guard.Mode{guard.ModeProtected, guard.ModeUnsafe} {
		if err := b.Reset(initial); err != nil {
			return err
		}

		run, err := b.Simulate(ctx, simulator.RunConfig{
			Mode:    mode,
			Tellers: tellers,
			Amount:  amount,
			Kind:    teller.Deposit,
		})
		if err != nil {
			return err
		}

		printRunReport(run)
	}

	fmt.Println("\nSame request set, same arithmetic, one mutex of difference.")
	return nil
}

func printRunReport(run *simulator.Run) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	okStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	badStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))

	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("── %s mode ─ %d tellers × %s %s ──",
		run.Mode, run.RequestedCount, run.Kind, run.AmountPerReq)))
	fmt.Printf("  expected final balance: %s\n", run.ExpectedFinalBalance)
	fmt.Printf("  observed final balance: %s\n", run.ObservedFinalBalance)
	fmt.Printf("  committed writes:       %d (rejected %d) in %v\n",
		run.CommittedCount, run.RejectedCount, run.Duration.Round(time.Millisecond))

	if run.Consistent() {
		fmt.Println("  " + okStyle.Render("✓ consistent — every update accounted for"))
	} else {
		fmt.Println("  " + badStyle.Render(fmt.Sprintf("⚡ %d update(s) silently lost", run.LostUpdateCount)))
	}
}
