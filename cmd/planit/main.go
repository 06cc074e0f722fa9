package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/stellarlinkco/planit/internal/config"
	"github.com/stellarlinkco/planit/internal/gateway"
	"github.com/stellarlinkco/planit/internal/knowledge"
	"github.com/stellarlinkco/planit/internal/llm"
	"github.com/stellarlinkco/planit/internal/mcpserver"
	"github.com/stellarlinkco/planit/internal/react"
)

// AgentOptions for running agent with custom dependencies
type AgentOptions struct {
	BackendFactory gateway.BackendFactory
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
}

// appFs backs onboarding and the knowledge directory scan.
var appFs afero.Fs = afero.NewOsFs()

// cliSession keys the REPL conversation history.
const cliSession = "cli:repl"

var rootCmd = &cobra.Command{
	Use:   "planit",
	Short: "planit - AI travel planning assistant",
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Ask the assistant a single question or start a REPL",
	RunE:  runAgent,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the gateway (channels + cron + metrics)",
	RunE:  runGateway,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the travel tools over MCP stdio",
	RunE:  runMCP,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered travel tools",
	RunE:  runTools,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and workspace",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show planit status",
	RunE:  runStatus,
}

var (
	messageFlag string
	planFlag    bool
)

func init() {
	agentCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	agentCmd.Flags().BoolVar(&planFlag, "plan", false, "Build a full trip plan instead of a chat answer")
	rootCmd.AddCommand(agentCmd, gatewayCmd, mcpCmd, toolsCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServices(cfg *config.Config, factory gateway.BackendFactory) (*gateway.Services, error) {
	return gateway.NewServices(cfg, gateway.Options{BackendFactory: factory, Fs: appFs})
}

// runAgent is the command handler that uses default options
func runAgent(cmd *cobra.Command, args []string) error {
	return runAgentWithOptions(AgentOptions{})
}

// runAgentWithOptions runs the agent with injectable dependencies for testing
func runAgentWithOptions(opts AgentOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, err := newServices(cfg, opts.BackendFactory)
	if err != nil {
		return err
	}
	defer svc.Close()

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	timeout := time.Duration(cfg.Agent.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultTimeoutSeconds) * time.Second
	}

	// Single message mode
	if messageFlag != "" {
		if err := respond(svc, messageFlag, timeout, stdout, stderr); err != nil {
			return fmt.Errorf("agent error: %w", err)
		}
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, "planit agent (type 'exit' to quit)")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		if err := respond(svc, input, timeout, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
	return nil
}

// respond answers one message. The answer goes to stdout; tool calls, loop
// statistics and plan budgets go to stderr.
func respond(svc *gateway.Services, msg string, timeout time.Duration, stdout, stderr io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if planFlag {
		plan, err := svc.Planner.CreatePlan(ctx, msg, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, plan.Itinerary)
		budget, err := json.MarshalIndent(plan.BudgetAnalysis, "", "  ")
		if err != nil {
			return fmt.Errorf("encode budget: %w", err)
		}
		fmt.Fprintf(stderr, "budget analysis:\n%s\n", budget)
		return nil
	}

	res, err := svc.Agent.RunWithHistory(ctx, svc.Sessions.History(cliSession), msg)
	if err != nil {
		return err
	}
	svc.Sessions.Append(cliSession,
		llm.Turn{Role: llm.RoleUser, Content: msg},
		llm.Turn{Role: llm.RoleAssistant, Content: res.Answer},
	)
	fmt.Fprintln(stdout, res.Answer)
	printRunStats(stderr, res)
	return nil
}

func printRunStats(w io.Writer, res *react.Result) {
	for _, call := range res.ToolCalls {
		args, _ := json.Marshal(call.Args)
		fmt.Fprintf(w, "  tool %d: %s %s\n", call.Position, call.Tool, args)
	}
	fmt.Fprintf(w, "iterations: %d, tool calls: %d", res.Iterations, len(res.ToolCalls))
	if res.BudgetExhausted {
		fmt.Fprint(w, " (iteration limit reached)")
	}
	fmt.Fprintln(w)
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, err := newServices(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	return mcpserver.ServeStdio(mcpserver.New(svc.Registry, svc.Executor))
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, err := newServices(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%d tools:\n%s\n", svc.Registry.Len(), svc.Registry.Catalog())
	return nil
}

func runOnboard(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := appFs.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	exists, err := afero.Exists(appFs, cfgPath)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	if !exists {
		cfg := config.DefaultConfig()
		data, _ := json.MarshalIndent(cfg, "", "  ")
		if err := afero.WriteFile(appFs, cfgPath, data, 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(out, "Created config: %s\n", cfgPath)
	} else {
		fmt.Fprintf(out, "Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	kdir := cfg.KnowledgeDir()
	if err := appFs.MkdirAll(kdir, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	writeIfNotExists(out, filepath.Join(kdir, "getting-started.md"), sampleKnowledgeDoc)

	fmt.Fprintf(out, "Workspace ready: %s\n", cfg.Agent.Workspace)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Edit %s to set your API key (without one the offline mock backend is used)\n", cfgPath)
	fmt.Fprintln(out, "  2. Or set PLANIT_API_KEY environment variable")
	fmt.Fprintf(out, "  3. Add travel notes as Markdown files under %s\n", kdir)
	fmt.Fprintln(out, "  4. Run 'planit agent -m \"What is the weather in Paris?\"' to test")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(out, "Config: error (%v)\n", err)
		return nil
	}

	fmt.Fprintf(out, "Config: %s\n", config.ConfigPath())
	fmt.Fprintf(out, "Workspace: %s\n", cfg.Agent.Workspace)
	fmt.Fprintf(out, "Model: %s\n", cfg.Agent.Model)
	fmt.Fprintf(out, "Provider: %s\n", providerDisplay(cfg.Provider))
	fmt.Fprintf(out, "API Key: %s\n", maskKey(cfg.Provider.APIKey))
	fmt.Fprintf(out, "Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	fmt.Fprintf(out, "WebUI: enabled=%v (%s:%d)\n", cfg.Channels.WebUI.Enabled, cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Fprintf(out, "Metrics: enabled=%v\n", cfg.Metrics.Enabled)

	if exists, _ := afero.DirExists(appFs, cfg.Agent.Workspace); !exists {
		fmt.Fprintln(out, "Workspace: not found (run 'planit onboard')")
	}

	dbPath := cfg.KnowledgeDBPath()
	if exists, _ := afero.Exists(appFs, dbPath); !exists {
		fmt.Fprintln(out, "Knowledge: not indexed")
		return nil
	}
	engine, err := knowledge.NewEngine(dbPath)
	if err != nil {
		fmt.Fprintf(out, "Knowledge: error (%v)\n", err)
		return nil
	}
	defer engine.Close()
	n, err := engine.Count()
	if err != nil {
		fmt.Fprintf(out, "Knowledge: error (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "Knowledge: %d documents\n", n)

	return nil
}

func providerDisplay(p config.ProviderConfig) string {
	switch {
	case p.Type == "" && p.APIKey == "":
		return "mock (no API key)"
	case p.Type == "":
		return "anthropic (default)"
	}
	return p.Type
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) <= 8:
		return "set"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func writeIfNotExists(out io.Writer, path, content string) {
	if exists, _ := afero.Exists(appFs, path); exists {
		return
	}
	if err := afero.WriteFile(appFs, path, []byte(content), 0644); err != nil {
		fmt.Fprintf(out, "  Failed: %s (%v)\n", path, err)
		return
	}
	fmt.Fprintf(out, "  Created: %s\n", path)
}

const sampleKnowledgeDoc = `---
title: Getting started with travel notes
destination: General
tags: [planning, notes]
---
Files in this directory are indexed into the knowledge base and searched by
the search_knowledge tool. Start each file with optional YAML frontmatter
(title, destination, tags) followed by Markdown text.

Keep one topic per file: neighbourhood guides, visa notes, favourite
restaurants or packing lists for a specific trip all work well.
`
