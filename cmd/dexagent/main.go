// Command dexagent is the Pokédex-Pro conversational agent. It runs an
// interactive terminal session by default, serves the HTTP API with
// "serve", and builds the local database mirror with "etl".
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	dexagent "github.com/pokedex-pro/dexagent"
	"github.com/pokedex-pro/dexagent/ai/openai"
	"github.com/pokedex-pro/dexagent/config"
	"github.com/pokedex-pro/dexagent/etl"
	"github.com/pokedex-pro/dexagent/sandbox"
	"github.com/pokedex-pro/dexagent/server"
	"github.com/pokedex-pro/dexagent/store"
	"github.com/pokedex-pro/dexagent/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	cmd := "repl"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "repl":
		err = runREPL(ctx, cfg)
	case "serve":
		err = runServe(cfg)
	case "etl":
		err = runETL(ctx, cfg, args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: dexagent [command]

commands:
  repl    interactive chat session (default)
  serve   run the HTTP API
  etl     download the PokeAPI mirror into the local database
            -force  rebuild even if the database exists
`)
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func newAgent(cfg config.Config) (*dexagent.Agent, *store.Store) {
	st := store.New(cfg.DBPath)
	registry := tools.NewRegistry(
		tools.NewQueryTool(st),
		tools.NewCodeTool(sandbox.New()),
	)
	model := openai.NewModel(cfg.Model, cfg.OpenAIAPIKey).WithTemperature(cfg.Temperature)
	return dexagent.New(model, registry), st
}

func runETL(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("etl", flag.ExitOnError)
	force := fs.Bool("force", false, "rebuild even if the database exists")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return etl.New(cfg.DBPath).Run(ctx, *force)
}

func runServe(cfg config.Config) error {
	agent, st := newAgent(cfg)
	if !st.Exists() {
		return fmt.Errorf("database %s not found, run `dexagent etl` first", cfg.DBPath)
	}
	return server.New(agent, st, cfg.MaxIterations, slog.Default()).ListenAndServe(cfg.Addr)
}

func runREPL(ctx context.Context, cfg config.Config) error {
	agent, st := newAgent(cfg)
	if !st.Exists() {
		return fmt.Errorf("database %s not found, run `dexagent etl` first", cfg.DBPath)
	}

	conv := dexagent.NewSession()
	fmt.Println("Pokédex-Pro agent. Ask about Pokémon, or /help for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			conv.Reset()
			fmt.Println("Conversation cleared.")
			continue
		case "/schema":
			if err := printSchema(ctx, st); err != nil {
				fmt.Println("error:", err)
			}
			continue
		case "/help":
			fmt.Println("/schema  show database tables and columns")
			fmt.Println("/clear   forget the conversation so far")
			fmt.Println("/quit    exit")
			continue
		}

		conv.AddUserMessage(line)
		fmt.Println(agent.Chat(ctx, conv, cfg.MaxIterations))
	}
}

func printSchema(ctx context.Context, st *store.Store) error {
	tables, err := st.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		cols, err := st.TableInfo(ctx, table)
		if err != nil {
			return err
		}
		parts := make([]string, 0, len(cols))
		for _, col := range cols {
			parts = append(parts, fmt.Sprintf("%v %v", col["name"], col["type"]))
		}
		fmt.Printf("%s (%s)\n", table, strings.Join(parts, ", "))
	}
	return nil
}
