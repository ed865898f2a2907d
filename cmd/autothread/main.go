// autothread MCP Server - Main entry point
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/oyin-bo/autothread/internal/auth"
	"github.com/oyin-bo/autothread/internal/bluesky"
	"github.com/oyin-bo/autothread/internal/cli"
	"github.com/oyin-bo/autothread/internal/config"
	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/internal/logging"
	"github.com/oyin-bo/autothread/internal/mcp"
	"github.com/oyin-bo/autothread/internal/thread"
	"github.com/oyin-bo/autothread/internal/tools"
	"github.com/oyin-bo/autothread/pkg/errors"
)

const version = "0.1.0"

// app holds the wired components shared by both modes
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	accounts  *auth.Manager
	client    *bluesky.Client
	store     *drafts.Store
	publisher *thread.Publisher
}

func main() {
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Detect mode: CLI if args present, MCP server otherwise
	if len(os.Args) > 1 {
		code := runCLIMode(ctx, a)
		cancel()
		logger.Sync()
		os.Exit(code)
	}
	runMCPMode(ctx, a)
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	credStore, err := auth.NewCredentialStore()
	if err != nil {
		// Env-var logins still work without a keyring
		logger.Warn("credential store unavailable", zap.Error(err))
		credStore = nil
	}

	sessions := auth.NewSessionManager(cfg.Service, cfg.RequestTimeout)
	accounts := auth.NewManager(sessions, credStore, logger.Named("auth"))

	client := bluesky.NewClient(cfg.Service, cfg.RequestTimeout, nil, logger.Named("bluesky"))
	client.SetRefresher(accounts.Refresh)

	store := drafts.NewStore(logger.Named("drafts"))
	publisher := thread.NewPublisher(store, client, thread.Options{
		Delay:           cfg.PublishDelay,
		ResolveTimeout:  cfg.ResolveTimeout,
		ResolveAttempts: cfg.ResolveAttempts,
		RetryDelay:      cfg.ResolveBackoff,
	}, logger.Named("publisher"))

	return &app{
		cfg:       cfg,
		logger:    logger,
		accounts:  accounts,
		client:    client,
		store:     store,
		publisher: publisher,
	}, nil
}

// ensureSession logs in from the environment when an app password is set,
// otherwise resumes the default saved session
func (a *app) ensureSession(ctx context.Context) error {
	if a.client.DID() != "" {
		return nil
	}

	var (
		creds *auth.Credentials
		err   error
	)
	if a.cfg.HasAppPassword() {
		creds, err = a.accounts.Login(ctx, a.cfg.Identifier, a.cfg.AppPassword)
	} else {
		creds, err = a.accounts.Resume(ctx, bluesky.NormalizeHandle(a.cfg.Identifier))
	}
	if err != nil {
		return err
	}

	a.client.SetAuth(creds.AuthInfo())
	return nil
}

// runCLIMode executes one command and returns the exit code
func runCLIMode(ctx context.Context, a *app) int {
	registry := cli.NewRegistry()
	runner := cli.NewRunner(registry, version)

	postTool := tools.NewPostTool(a.client)

	defs := []*cli.ToolDefinition{
		{
			Name:        "login",
			Description: "Authenticate with Bluesky using handle and app password",
			ArgsType:    &cli.LoginArgs{},
			Execute:     cli.NewLoginAdapter(a.accounts).Execute,
		},
		{
			Name:        "logout",
			Description: "Remove stored credentials for a Bluesky account",
			ArgsType:    &cli.LogoutArgs{},
			Execute:     cli.NewLogoutAdapter(a.accounts).Execute,
		},
		{
			Name:        "accounts",
			Description: "List saved accounts and choose the default one",
			ArgsType:    &cli.AccountsArgs{},
			Execute:     cli.NewAccountsAdapter(a.accounts).Execute,
		},
		{
			Name:        "post",
			Description: postTool.Description(),
			ArgsType:    &tools.PostArgs{},
			Execute:     cli.RequireSession(a.ensureSession, cli.NewMCPToolAdapter(postTool, errors.RemoteError).Execute),
		},
		{
			Name:        "split",
			Description: "Preview how text would be split into a thread without posting",
			ArgsType:    &cli.SplitArgs{},
			Execute:     cli.NewSplitAdapter().Execute,
		},
		{
			Name:        "thread",
			Description: "Split text into a thread and publish it",
			ArgsType:    &cli.ThreadArgs{},
			Execute:     cli.RequireSession(a.ensureSession, cli.NewThreadAdapter(a.store, a.publisher).Execute),
		},
	}
	for _, def := range defs {
		runner.RegisterToolCommand(def)
	}

	return runner.Run(ctx, os.Args[1:])
}

// runMCPMode starts the MCP server
func runMCPMode(ctx context.Context, a *app) {
	if err := a.ensureSession(ctx); err != nil {
		a.logger.Fatal("failed to authenticate with Bluesky",
			zap.String("service", a.cfg.Service),
			zap.String("reason", errors.Classify(err).Message))
	}

	server := mcp.NewServer("autothread", version, a.logger.Named("mcp"))
	server.RegisterTool(tools.NewCreateDraftTool(a.store))
	server.RegisterTool(tools.NewListDraftsTool(a.store, a.cfg.DraftListDefault))
	server.RegisterTool(tools.NewGetDraftTool(a.store))
	server.RegisterTool(tools.NewPublishDraftTool(a.publisher))
	server.RegisterTool(tools.NewDeleteDraftTool(a.store))
	server.RegisterTool(tools.NewPostTool(a.client))

	a.logger.Info("starting autothread server",
		zap.String("handle", a.client.Handle()),
		zap.String("service", a.cfg.Service),
		zap.Duration("publish_delay", a.cfg.PublishDelay))

	if err := server.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		a.logger.Fatal("server error", zap.Error(err))
	}

	a.logger.Info("server shut down gracefully")
}
