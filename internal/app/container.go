// Package app wires the capability services, rpc framing, adapters, and the
// orchestration dispatcher into one container the CLI and the server share.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"souschef/internal/agent/domain"
	"souschef/internal/agent/ports"
	"souschef/internal/capability"
	"souschef/internal/config"
	"souschef/internal/logging"
	"souschef/internal/observability"
	"souschef/internal/rpc"
	"souschef/internal/services/delivery"
	"souschef/internal/services/notify"
	"souschef/internal/services/recipe"
)

// Container holds the wired application dependencies
type Container struct {
	Registry       *capability.Registry
	Dispatcher     *domain.Dispatcher
	DeliveryClient *rpc.Client
	Notify         *notify.Service
	Config         config.Config
	Logger         logging.Logger
	Observer       *observability.Observer
}

// Options tune container construction
type Options struct {
	Config   config.Config
	Logger   logging.Logger
	Observer *observability.Observer
	Clock    ports.Clock // Nil means wall time; tests inject a mock
}

// Build constructs the full in-process capability stack: each service runs
// behind its own rpc server, reached through a client and exposed to the
// engine as adapters in the registry.
func Build(ctx context.Context, opts Options) (*Container, error) {
	logger := logging.OrNop(opts.Logger)

	recipeServer, err := recipe.NewServer(logger)
	if err != nil {
		return nil, fmt.Errorf("build recipe service: %w", err)
	}
	deliverySvc, err := delivery.NewService(opts.Clock, logger)
	if err != nil {
		return nil, fmt.Errorf("build delivery service: %w", err)
	}
	notifySvc := notify.NewService(logger)

	servers := map[string]*rpc.Server{
		recipe.ServerName:   recipeServer,
		delivery.ServerName: deliverySvc.Server(logger),
		notify.ServerName:   notifySvc.Server(logger),
	}

	clients := make(map[string]*rpc.Client, len(servers))
	for name, server := range servers {
		clients[name] = rpc.NewClient(name, server, logger)
	}

	// Discover and register each server's tools concurrently; the registry
	// serializes writes.
	registry := capability.NewRegistry()
	g, gctx := errgroup.WithContext(ctx)
	for name, client := range clients {
		g.Go(func() error {
			schemas, err := client.ListTools(gctx)
			if err != nil {
				return fmt.Errorf("list tools for %s: %w", name, err)
			}
			for _, schema := range schemas {
				if err := registry.Register(capability.NewAdapter(client, schema)); err != nil {
					return fmt.Errorf("register capability %s: %w", schema.Name, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Container{
		Registry:       registry,
		Dispatcher:     domain.NewDispatcher(registry, logger, opts.Observer),
		DeliveryClient: clients[delivery.ServerName],
		Notify:         notifySvc,
		Config:         opts.Config,
		Logger:         logger,
		Observer:       opts.Observer,
	}, nil
}

// NewEngine builds an engine bound to the container's dispatcher. Each caller
// supplies its own listener; nil is fine.
func (c *Container) NewEngine(listener ports.EventListener) *domain.Engine {
	return domain.NewEngine(c.Dispatcher, domain.EngineOptions{
		MaxIterations: c.Config.MaxIterations,
		Logger:        c.Logger,
		Listener:      listener,
		Observer:      c.Observer,
	})
}
