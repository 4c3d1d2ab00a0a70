package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alienxp03/arbiter/internal/artifact"
	"github.com/alienxp03/arbiter/internal/config"
	"github.com/alienxp03/arbiter/internal/core"
	"github.com/alienxp03/arbiter/internal/engine"
	"github.com/alienxp03/arbiter/internal/export"
	"github.com/alienxp03/arbiter/internal/index"
	"github.com/alienxp03/arbiter/internal/provider"
	"github.com/alienxp03/arbiter/internal/records"
	"github.com/alienxp03/arbiter/web/handlers"
)

var (
	homeDir   string
	cfgPath   string
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Multi-role AI debate engine",
	Long: `arbiter runs structured debates between five fixed AI roles.

Each run walks a problem through three argumentation rounds, scores
consensus, judges a decision, and writes a validated Final Packet plus
a worklog or decision record to the local store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if homeDir != "" {
			appConfig.Home = homeDir
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Data directory (default: ~/.arbiter)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.arbiter/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

func getEngine() (*engine.Engine, *index.SQLiteIndex, error) {
	home := appConfig.Home
	if home == "" {
		home = config.DefaultHome()
	}

	idx, err := index.New(filepath.Join(home, "index.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}
	if err := idx.Initialize(); err != nil {
		idx.Close()
		return nil, nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	store := artifact.NewStore(filepath.Join(home, "debates"))
	recordStore := records.NewStore(filepath.Join(home, "records"))
	registry := provider.FromConfig(appConfig)

	return engine.New(appConfig, store, idx, registry, recordStore), idx, nil
}

// ============================================================================
// RUN COMMAND
// ============================================================================

var (
	outputTypeFlag    string
	constraintsFlag   []string
	participantsFlag  []string
	maxSecondsFlag    int
	maxTokensFlag     int
	writebackTypeFlag string
	jsonOutputFlag    bool
)

var runCmd = &cobra.Command{
	Use:   "run [problem]",
	Short: "Run a debate on a problem",
	Long: `Run a full debate on the given problem statement.

Examples:
  arbiter run "Should we migrate the API to gRPC?"
  arbiter run "Cache eviction strategy" --output-type architecture
  arbiter run "Q3 roadmap" -t planning -c "budget is fixed" -c "ship by October"
  arbiter run "DB choice" -p Proponent=claude -p Critic=openai/gpt-4.1-mini`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, idx, err := getEngine()
		if err != nil {
			return err
		}
		defer idx.Close()

		participants, err := parseParticipants(participantsFlag)
		if err != nil {
			return err
		}

		req := core.Request{
			Problem:             strings.Join(args, " "),
			Constraints:         constraintsFlag,
			OutputType:          outputTypeFlag,
			Participants:        participants,
			MaxTurnSeconds:      maxSecondsFlag,
			MaxTurnTokens:       maxTokensFlag,
			WritebackRecordType: writebackTypeFlag,
		}

		resp, err := eng.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		if jsonOutputFlag {
			return printJSON(resp)
		}

		fmt.Printf("\nRun:       %s\n", resp.RunID)
		fmt.Printf("Degraded:  %v\n", resp.Degraded)
		fmt.Printf("Consensus: %.3f (confidence %.3f)\n",
			resp.FinalPacket.Consensus.ConsensusScore,
			resp.FinalPacket.Consensus.ConfidenceScore)
		fmt.Printf("Decision:  %s\n", resp.FinalPacket.Decision.SelectedOption)
		if len(resp.ErrorCodes) > 0 {
			fmt.Printf("Codes:     %s\n", strings.Join(resp.ErrorCodes, ", "))
		}
		fmt.Printf("\nArtifacts: %s\n", resp.ArtifactsRoot)
		fmt.Printf("Writeback: %s\n", resp.WritebackJSONPath)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&outputTypeFlag, "output-type", "t", "decision", "Output type (decision|writing|architecture|planning|evaluation)")
	runCmd.Flags().StringArrayVarP(&constraintsFlag, "constraint", "c", nil, "Constraint (repeatable)")
	runCmd.Flags().StringArrayVarP(&participantsFlag, "participant", "p", nil, "Role binding as role=provider[/model] (repeatable)")
	runCmd.Flags().IntVar(&maxSecondsFlag, "max-turn-seconds", 0, "Per-turn timeout in seconds (default 35)")
	runCmd.Flags().IntVar(&maxTokensFlag, "max-turn-tokens", 0, "Per-turn token cap (default 900)")
	runCmd.Flags().StringVar(&writebackTypeFlag, "writeback-type", "", "Record type for writeback (decision|worklog)")
	runCmd.Flags().BoolVar(&jsonOutputFlag, "json", false, "Print the full response as JSON")
}

// parseParticipants parses "role=provider[/model]" bindings.
func parseParticipants(bindings []string) ([]core.ParticipantConfig, error) {
	var out []core.ParticipantConfig
	for _, binding := range bindings {
		parts := strings.SplitN(binding, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid participant: %s (expected role=provider[/model])", binding)
		}

		pc := core.ParticipantConfig{Role: parts[0]}
		if prov, model, found := strings.Cut(parts[1], "/"); found {
			pc.ModelProvider = prov
			pc.ModelName = model
		} else {
			pc.ModelProvider = parts[1]
		}
		out = append(out, pc)
	}
	return out, nil
}

// ============================================================================
// REPLAY COMMAND
// ============================================================================

var replayCmd = &cobra.Command{
	Use:   "replay [run-id]",
	Short: "Reconstruct a past run from its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, idx, err := getEngine()
		if err != nil {
			return err
		}
		defer idx.Close()

		result, err := eng.Replay(args[0])
		if err != nil {
			return err
		}

		if jsonReplayFlag {
			return printJSON(result)
		}

		fmt.Printf("\nRun:            %s\n", result.RunID)
		fmt.Printf("Rounds on disk: %d\n", len(result.Rounds))
		fmt.Printf("Files complete: %v\n", result.Consistency.FilesComplete)
		fmt.Printf("Indexed:        %v\n", result.Consistency.Indexed)
		if result.FinalPacket != nil {
			fmt.Printf("Decision:       %s\n", result.FinalPacket.Decision.SelectedOption)
		}
		for _, issue := range result.Consistency.Issues {
			fmt.Printf("  ! %s\n", issue)
		}
		return nil
	},
}

var jsonReplayFlag bool

func init() {
	replayCmd.Flags().BoolVar(&jsonReplayFlag, "json", false, "Print the full replay as JSON")
}

// ============================================================================
// LIST COMMAND
// ============================================================================

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, idx, err := getEngine()
		if err != nil {
			return err
		}
		defer idx.Close()

		runs, err := eng.ListRuns(50, 0)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs found. Start one with: arbiter run \"Your problem\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tTYPE\tPROVIDER\tPROBLEM\tSCORE\tDEGRADED\tSTARTED")
		for _, run := range runs {
			problem := run.Problem
			if len(problem) > 40 {
				problem = problem[:37] + "..."
			}
			degraded := ""
			if run.Degraded {
				degraded = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3f\t%s\t%s\n",
				run.RunID, run.OutputType, run.Provider, problem, run.ConsensusScore, degraded, run.StartedAt)
		}
		w.Flush()
		return nil
	},
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var exportCmd = &cobra.Command{
	Use:   "export [run-id] [format]",
	Short: "Export a run's Final Packet to a file",
	Long: `Export a completed run to markdown or PDF.

Examples:
  arbiter export debate_20260824_101500_x7k2q md
  arbiter export debate_20260824_101500_x7k2q pdf -o decision.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, idx, err := getEngine()
		if err != nil {
			return err
		}
		defer idx.Close()

		result, err := eng.Replay(args[0])
		if err != nil {
			return err
		}
		if result.FinalPacket == nil {
			return fmt.Errorf("run %s has no final packet", args[0])
		}

		format := strings.ToLower(args[1])
		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = args[0] + "." + format
		}

		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()

		switch format {
		case "pdf":
			exporter := export.NewPDFExporter()
			if err := exporter.Export(result.FinalPacket, file); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
		case "md", "markdown":
			if _, err := file.WriteString(export.Markdown(result.FinalPacket)); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
		default:
			return fmt.Errorf("unsupported format: %s (expected md or pdf)", format)
		}

		fmt.Printf("Exported to: %s\n", outputPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file path")
}

// ============================================================================
// PROVIDERS COMMAND
// ============================================================================

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	Run: func(cmd *cobra.Command, args []string) {
		registry := provider.FromConfig(appConfig)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tMODEL\tSTATUS")
		for _, name := range registry.List() {
			p, ok := registry.Get(name)
			if !ok {
				continue
			}
			status := "unavailable"
			if p.Available() {
				status = "available"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				name, p.Type(), provider.DefaultModel(appConfig, name), status)
		}
		w.Flush()
	},
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n\n", config.DefaultConfigPath())
		fmt.Printf("Home: %s\n", appConfig.Home)
		fmt.Printf("Defaults: %ds per turn, %d tokens\n",
			appConfig.Defaults.MaxTurnSeconds, appConfig.Defaults.MaxTurnTokens)
		fmt.Println("\nProviders:")
		for name, p := range appConfig.Providers {
			status := "disabled"
			if p.Enabled {
				status = "enabled"
			}
			fmt.Printf("  %s: %s (%s, model %s)\n", name, status, p.Type, p.DefaultModel)
		}
		fmt.Println("\nWriteback mapping:")
		for output, record := range appConfig.Writeback.TypeByOutput {
			fmt.Printf("  %s -> %s\n", output, record)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("Created config at: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}

		eng, idx, err := getEngine()
		if err != nil {
			return err
		}
		defer idx.Close()

		h := handlers.New(eng, provider.FromConfig(appConfig))
		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", servePort),
			Handler: h.Router(),
		}

		fmt.Printf("\nStarting arbiter API on http://localhost:%d\n\n", servePort)
		fmt.Printf("  POST http://localhost:%d/api/debates              - Run a debate\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/api/debates              - List runs\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/api/debates/{id}/replay  - Replay a run\n", servePort)
		fmt.Println("\nPress Ctrl+C to stop the server")

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			fmt.Println("\nShutting down...")
			server.Close()
		}()

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8184, "Server port")
}

// ============================================================================
// HELPERS
// ============================================================================

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
