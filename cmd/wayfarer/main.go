package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/arjun/wayfarer/internal/agents"
	"github.com/arjun/wayfarer/internal/gateway"
	"github.com/arjun/wayfarer/internal/governance"
	"github.com/arjun/wayfarer/internal/observability"
	"github.com/arjun/wayfarer/internal/state"
	"github.com/arjun/wayfarer/internal/store"
	"github.com/arjun/wayfarer/internal/tools"
	"github.com/arjun/wayfarer/internal/workflow"
	"github.com/arjun/wayfarer/pkg/config"
)

const (
	flightSearchURL        = "https://www.kayak.com/flights/%s-%s"
	accommodationSearchURL = "https://www.booking.com/searchresults.html?ss=%s"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	query := flag.String("query", "", "run a single planning query and exit")
	list := flag.Bool("list", false, "list stored plans and exit")
	flag.Parse()

	observability.PrintBanner()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	plans, err := store.NewPlanStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer plans.Close()

	if *list {
		listPlans(plans)
		return
	}

	runID := fmt.Sprintf("run-%d", time.Now().Unix())
	logger := observability.NewLogger(runID)

	// Block fetches that would reach internal network surfaces.
	gov := governance.NewDefaultPolicyEngine()
	gov.DenyHost("localhost")
	gov.DenyHost("127.0.0.1")
	gov.DenyHost("169.254.169.254")

	searchTool, err := tools.NewSearchTool()
	if err != nil {
		log.Printf("Warning: failed to initialize search tool: %v", err)
	}
	scraper := tools.NewScraperTool(gov)
	browser := tools.NewBrowserTool(cfg.Browser.Headless, time.Duration(cfg.Browser.TimeoutSeconds)*time.Second, gov)
	defer browser.Close()

	pName, pCfg, ok := cfg.DefaultProvider()
	if !ok {
		log.Fatal("No enabled provider found in config")
	}

	var llm llms.Model
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented in main", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	promptDir := cfg.App.PromptDir
	if promptDir == "" {
		promptDir = "./prompts"
	}
	prompts := agents.NewPromptManager(promptDir)

	base := func(name string) agents.Agent {
		mc := agents.ModelConfig{Model: pCfg.Model}
		if ac, ok := cfg.AgentModel(name); ok {
			mc = agents.ModelConfig{Model: ac.Model, Temperature: ac.Temperature, MaxTokens: ac.MaxTokens}
			if mc.Model == "" {
				mc.Model = pCfg.Model
			}
		}
		return agents.NewAgent(name, llm, mc, prompts, logger)
	}

	caps := workflowCapabilities(base, searchTool, scraper, browser)

	planner := newPlanner(cfg, caps, plans, logger)

	gw := pickGateway(cfg)
	if closer, ok := gw.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.LogHeartbeat()
			}
		}
	}()

	if *query != "" {
		if err := runQuery(ctx, planner, plans, gw, logger, *query); err != nil {
			log.Fatal(err)
		}
		return
	}

	interactive(ctx, planner, plans, gw, logger)
	log.Printf("session ended after %s", observability.Uptime())
}

func interactive(ctx context.Context, planner planRunner, plans *store.PlanStore, gw gateway.Gateway, logger *observability.Logger) {
	fmt.Println("Describe a trip to plan, or 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := runQuery(ctx, planner, plans, gw, logger, line); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("planning failed: %v", err)
		}
	}
}

// planRunner is the slice of the planner main drives.
type planRunner interface {
	Run(ctx context.Context, s state.PlanningState) (state.PlanningState, error)
	Resume(ctx context.Context, snapshot state.PlanningState, in state.HumanInput) (state.PlanningState, error)
}

// runQuery drives one planning workflow to a terminal stage, looping
// through the gateway whenever the run suspends for human input.
func runQuery(ctx context.Context, planner planRunner, plans *store.PlanStore, gw gateway.Gateway, logger *observability.Logger, query string) error {
	out, err := planner.Run(ctx, state.New(query))
	if err != nil {
		return err
	}
	for out.CurrentStage == state.StageInterrupted {
		req := state.HumanRequest{Prompt: "Please provide more details about your trip.", Field: "destination"}
		if out.HumanRequest != nil {
			req = *out.HumanRequest
		}
		in, err := gw.Ask(ctx, req)
		if err != nil {
			return err
		}
		out, err = planner.Resume(ctx, out, in)
		if err != nil {
			return err
		}
	}

	status := "complete"
	if out.CurrentStage == state.StageError {
		status = "failed"
	}
	id, err := plans.SavePlan(out.Query.Destination, status, out.Plan)
	if err != nil {
		log.Printf("Warning: failed to save plan: %v", err)
	} else {
		logger.LogStage(string(out.CurrentStage), map[string]any{"plan_id": id})
	}

	printPlan(out)
	if out.Plan.Summary != "" {
		if err := gw.Notify(out.Plan.Summary); err != nil {
			log.Printf("Warning: gateway notify failed: %v", err)
		}
	}
	return nil
}

func printPlan(s state.PlanningState) {
	fmt.Println()
	if s.CurrentStage == state.StageError {
		fmt.Println("Planning did not complete.")
		if s.Failure != nil {
			fmt.Printf("  reason: %s\n", s.Failure.Reason)
		}
	}
	if s.Plan.Summary != "" {
		fmt.Println(s.Plan.Summary)
		fmt.Println()
	}
	if len(s.Plan.Flights) > 0 {
		fmt.Println("Flights:")
		for _, f := range s.Plan.Flights {
			fmt.Printf("  %s %s -> %s  %.2f %s\n", f.Airline, f.Depart, f.Arrive, f.Price, f.Currency)
		}
	}
	if len(s.Plan.Accommodation) > 0 {
		fmt.Println("Accommodation:")
		for _, a := range s.Plan.Accommodation {
			fmt.Printf("  %s (%.1f)  %.2f %s/night\n", a.Name, a.Rating, a.PricePerNight, a.Currency)
		}
	}
	if len(s.Plan.Itinerary) > 0 {
		fmt.Println("Itinerary:")
		for _, day := range s.Plan.Itinerary {
			fmt.Printf("  Day %d: %d activities\n", day.Day, len(day.Activities))
		}
	}
	if s.Plan.Budget != nil {
		fmt.Printf("Estimated total: %.2f %s\n", s.Plan.Budget.Total, s.Plan.Budget.Currency)
	}
	for _, alert := range s.Plan.Alerts {
		fmt.Printf("  ! %s\n", alert)
	}
	fmt.Println()
}

func listPlans(plans *store.PlanStore) {
	records, err := plans.ListPlans(store.PlanFilter{Limit: 20})
	if err != nil {
		log.Fatal(err)
	}
	if len(records) == 0 {
		fmt.Println("No stored plans.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %-12s  %-20s  %s\n", r.ID, r.Status, r.Destination, r.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func workflowCapabilities(base func(string) agents.Agent, search *tools.SearchTool, scraper *tools.ScraperTool, browser *tools.BrowserTool) workflow.Capabilities {
	var searchProvider agents.SearchProvider
	if search != nil {
		searchProvider = search
	}
	return workflow.Capabilities{
		QueryAnalysis:       agents.NewQueryAnalyzer(base("query_analysis")),
		DestinationResearch: agents.NewDestinationResearcher(base("destination_research"), searchProvider, scraper),
		Flights:             agents.NewFlightSearch(base("flight_search"), browser, flightSearchURL),
		Accommodation:       agents.NewAccommodationSearch(base("accommodation_search"), browser, accommodationSearchURL),
		Transportation:      agents.NewTransportationPlanner(base("transportation_planning")),
		Activities:          agents.NewActivityPlanner(base("activity_planning")),
		Budget:              agents.NewBudgetManager(base("budget_management")),
	}
}

func newPlanner(cfg *config.Config, caps workflow.Capabilities, plans *store.PlanStore, logger *observability.Logger) *workflow.Planner {
	return workflow.NewPlanner(workflow.Options{
		MaxConcurrency:      cfg.System.MaxConcurrency,
		MaxAttempts:         cfg.System.MaxAttempts,
		MinSuccesses:        cfg.System.MinSuccesses,
		TaskTimeout:         cfg.TaskTimeout(),
		ConfidenceThreshold: cfg.System.ConfidenceThreshold,
		DefaultBudget:       cfg.System.DefaultBudget,
		DefaultCurrency:     cfg.System.DefaultCurrency,
		Snapshots:           plans,
		Log:                 logger,
	}, caps)
}

func pickGateway(cfg *config.Config) gateway.Gateway {
	if tg, ok := cfg.TelegramConfig(); ok {
		gw, err := gateway.NewTelegramGateway(tg.Token, tg.ChatID)
		if err != nil {
			log.Printf("Warning: telegram gateway unavailable: %v", err)
		} else {
			return gw
		}
	}
	if dc, ok := cfg.DiscordConfig(); ok {
		gw, err := gateway.NewDiscordGateway(dc.Token, dc.Channel)
		if err != nil {
			log.Printf("Warning: discord gateway unavailable: %v", err)
		} else {
			return gw
		}
	}
	return gateway.NewConsoleGateway()
}
