// Copyright (c) Graphwise. All rights reserved.

// Command ttyg-chat is a terminal client for GraphDB's Talk to Your Graph.
//
// It bridges the OpenAI Assistants API (natural language understanding and
// answer generation) with GraphDB's low-level TTYG endpoint (query method
// execution), and keeps a local record of conversation threads so chats can
// be resumed.
//
// Usage:
//
//	ttyg-chat [-config client.yaml] <assistant-id> (<thread-id>|new)
//
// With no positional arguments the known assistants and threads are listed.
// In the chat loop, free text is sent to the assistant; !-prefixed commands
// (see !help) switch assistants/threads and inspect the last tool calls.
// An empty line quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"unicode/utf8"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"

	"github.com/graphwise/ttyg-client/assistant"
	"github.com/graphwise/ttyg-client/config"
	"github.com/graphwise/ttyg-client/graphdb"
	"github.com/graphwise/ttyg-client/ttyg"
)

// toolOutputPrintLimit caps how much of a tool result is echoed to the terminal.
const toolOutputPrintLimit = 1000

func main() {
	// Load .env file if present (ignored if missing).
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	configPath := flag.String("config", "client.yaml", "path to the client config file")
	flag.Parse()

	out := newConsolePrinter(os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		out.Error(">>> %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, out, flag.Args()); err != nil {
		if ctx.Err() == nil {
			out.Error(">>> %v", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out *consolePrinter, args []string) error {
	client := newAssistantClient(cfg)

	graph := graphdb.New(cfg.GraphDB.URL,
		graphdb.WithBasicAuth(cfg.GraphDB.Username, cfg.GraphDB.Password),
		graphdb.WithTimeout(cfg.Chat.RequestTimeout),
	)
	if cfg.GraphDB.AuthHeader != "" {
		graph = graphdb.New(cfg.GraphDB.URL,
			graphdb.WithAuthHeader(cfg.GraphDB.AuthHeader),
			graphdb.WithTimeout(cfg.Chat.RequestTimeout),
		)
	}

	store, err := ttyg.OpenThreadStore(cfg.Chat.ThreadsFile, cfg.GraphDB.Username,
		cfg.GraphDB.InstallationID, client, slog.Default())
	if err != nil {
		return err
	}
	defer store.Close()

	orch := ttyg.NewOrchestrator(client, ttyg.NewDispatcher(graph, slog.Default()),
		ttyg.WithTurnConfig(ttyg.TurnConfig{
			MaxToolRounds: cfg.Chat.MaxToolRounds,
			PollInterval:  cfg.Chat.PollInterval,
			PollTimeout:   cfg.Chat.RequestTimeout,
		}),
		ttyg.WithToolCallObserver(func(call ttyg.ToolCall, result ttyg.ToolResult) {
			out.Success(">>>>>> Called %s, result (%d characters):", call.Name, len(result.Output))
			out.Success("    %s", truncate(result.Output, toolOutputPrintLimit))
		}),
	)

	handler := ttyg.NewCommandHandler(store, client, orch,
		cfg.GraphDB.InstallationID, cfg.GraphDB.Username, out)

	if len(args) != 2 {
		printUsage()
		handler.Handle(ctx, ttyg.NewSession(), "!list")
		return fmt.Errorf("expected an assistant ID and a thread ID")
	}

	session := ttyg.NewSession()
	handler.Handle(ctx, session, "!assistant "+args[0])
	if session.Assistant() == nil {
		return fmt.Errorf("assistant %s is not usable", args[0])
	}
	handler.Handle(ctx, session, "!thread "+args[1])
	if session.Thread() == nil {
		return fmt.Errorf("thread %s is not usable", args[1])
	}

	out.Info(">>> Start conversation by asking something. Press Enter (empty input) to quit.")
	out.Info(">>> Type !help and press Enter to get a list of !-prefixed commands.")

	lines := newLineReader(os.Stdin, out)
	for {
		line, ok := lines.read("> ")
		if !ok || ctx.Err() != nil {
			return nil
		}
		if !handler.Handle(ctx, session, line) {
			return nil
		}
	}
}

// newAssistantClient builds the assistant service client, choosing between
// direct OpenAI and Azure OpenAI based on the configured endpoint.
func newAssistantClient(cfg *config.Config) *assistant.Client {
	if !cfg.OpenAI.Azure() {
		opts := []assistant.Option{}
		if cfg.OpenAI.APIURL != "" {
			opts = append(opts, assistant.WithBaseURL(cfg.OpenAI.APIURL))
		}
		return assistant.New(cfg.OpenAI.APIKey, opts...)
	}

	opts := []assistant.Option{
		assistant.WithBaseURL(cfg.OpenAI.APIURL),
		assistant.WithAPIVersion(cfg.OpenAI.AzureAPIVersion),
	}
	if cfg.OpenAI.APIKey != "" {
		// Azure uses an api-key header instead of a Bearer token.
		opts = append(opts, assistant.WithHeaders(map[string]string{"api-key": cfg.OpenAI.APIKey}))
	} else {
		// No key configured: fall back to Azure AD (env vars, managed
		// identity, az login, ...).
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			slog.Error("azure credential init failed", "error", err)
			os.Exit(1)
		}
		opts = append(opts, assistant.WithAzureCredential(cred))
	}
	return assistant.New("", opts...)
}

// truncate shortens s to at most limit bytes, noting the truncation. The cut
// backs up to a rune boundary so a multi-byte character is never split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return fmt.Sprintf("%s%s... (output truncated at %d)%s", s[:limit], colorRed, limit, colorReset)
}

func printUsage() {
	fmt.Println("GraphDB Talk to Your Graph Client")
	fmt.Println("Usage: ttyg-chat [-config client.yaml] <assistant-id> (<thread-id>|new)")
	fmt.Println()
	fmt.Println("You can provide an existing thread ID or name, " +
		"or the special value 'new' to create a new thread.")
	fmt.Println()
}
