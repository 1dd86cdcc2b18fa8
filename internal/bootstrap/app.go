// Package bootstrap assembles the server process from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agenthub-x/agenthub/agents/collaboration"
	"github.com/agenthub-x/agenthub/agents/composer"
	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/agents/router"
	"github.com/agenthub-x/agenthub/api"
	"github.com/agenthub-x/agenthub/config"
	"github.com/agenthub-x/agenthub/internal/activity"
	"github.com/agenthub-x/agenthub/internal/cardano"
	"github.com/agenthub-x/agenthub/internal/chat"
	"github.com/agenthub-x/agenthub/internal/hydra"
	"github.com/agenthub-x/agenthub/internal/ledger"
	"github.com/agenthub-x/agenthub/internal/marketplace"
	"github.com/agenthub-x/agenthub/internal/masumi"
	"github.com/agenthub-x/agenthub/internal/store"
	"github.com/agenthub-x/agenthub/llm"
	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/websocket"
)

// App is a fully wired server
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	store     *store.Store
	observers *websocket.Server
	api       *api.Server
}

// New wires every component. Integrations without credentials run simulated.
func New(ctx context.Context, cfg *config.Config, version string, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "bootstrap")

	reg := registry.New()
	if cfg.Server.PersonasFile != "" {
		overrides, err := config.LoadPersonaOverrides(cfg.Server.PersonasFile)
		if err != nil {
			return nil, err
		}
		for _, name := range reg.ApplyOverrides(overrides) {
			log.Warnf("persona override for unknown agent %q ignored", name)
		}
	}

	client, err := llm.New(ctx, cfg.LLM, log)
	switch {
	case errors.Is(err, llm.ErrLLMDisabled):
		log.Warn("no LLM credentials: routing falls back to AgentHub and replies are apologies")
		client = nil
	case err != nil:
		return nil, fmt.Errorf("llm client: %w", err)
	}

	st, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return nil, err
	}
	if err := st.SeedAgents(ctx, reg.List()); err != nil {
		_ = st.Close()
		return nil, err
	}

	signer, err := ledger.LoadOrCreateSigner(cfg.Server.WitnessKeyFile)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var bf *cardano.Blockfrost
	if cfg.CardanoLive() {
		bf = cardano.NewBlockfrost(cfg.Cardano.Network, cfg.Cardano.BlockfrostKey, log)
	}
	card := cardano.New(cfg.Cardano.Network, bf, signer, log)

	var mc *masumi.Client
	if cfg.MasumiLive() {
		mc = masumi.NewClient(cfg.Masumi.NetworkURL, cfg.Masumi.APIKey, log)
	}
	mas := masumi.New(cfg.Masumi.NetworkURL, mc, log)

	var node *hydra.Node
	if cfg.HydraLive() {
		node = hydra.NewNode(cfg.Hydra.NodeURL, cfg.Hydra.APIKey, log)
	}
	hyd := hydra.NewService(hydra.NewLedger(), node, cfg.Hydra.NodeURL, log)

	var sc *marketplace.Client
	if cfg.MarketplaceLive() {
		sc = marketplace.NewClient(cfg.Marketplace.URL, cfg.Marketplace.APIKey, log)
	}
	market := marketplace.New(sc, log)

	if err := registerAgents(ctx, st, reg, card, mas); err != nil {
		_ = st.Close()
		return nil, err
	}

	synth := activity.New(reg, activity.Capabilities{
		MasumiLive:  cfg.MasumiLive(),
		HydraLive:   cfg.HydraLive(),
		CardanoLive: cfg.CardanoLive(),
	}, cfg.Cardano.Network, cfg.Masumi.NetworkURL)

	observers := websocket.NewServer(log)
	orch := collaboration.New(market, client, observers, cfg.Server.CollaborationDelay(), log)

	svc := chat.New(chat.Deps{
		Store:        st,
		Registry:     reg,
		Router:       router.New(reg, client, log),
		Collaborator: orch,
		Composer:     composer.New(client, log),
		Activity:     synth,
		Cardano:      card,
		Masumi:       mas,
		Log:          log,
	})

	srv := api.New(api.Deps{
		Chat:          svc,
		Store:         st,
		Marketplace:   market,
		Hydra:         hyd,
		Cardano:       card,
		Masumi:        mas,
		Activity:      synth,
		Collaboration: orch,
		Observers:     observers,
		Version:       version,
		Log:           log,
	})

	log.Infof("wired: simulation=%t marketplace_live=%t llm=%t", cfg.SimulationMode(), market.IsLive(), client != nil)
	return &App{cfg: cfg, log: log, store: st, observers: observers, api: srv}, nil
}

// registerAgents gives every stored persona a Masumi entry under its store
// id, so per-turn reputation updates land, and a Cardano DID.
func registerAgents(ctx context.Context, st *store.Store, reg *registry.Registry, card *cardano.Service, mas *masumi.Service) error {
	agents, err := st.ListAgents(ctx)
	if err != nil {
		return err
	}
	for _, a := range agents {
		prof := reg.Profile(a.Name, true)
		mas.Register(a.ID, a.Name, a.Domain, prof.Services)
		card.RegisterDID(a.ID, a.Name, map[string]interface{}{"domain": a.Domain, "masumi_did": prof.DID})
	}
	return nil
}

// Handler exposes the routed API, mainly for tests
func (a *App) Handler() http.Handler { return a.api.Handler() }

// Run serves HTTP and the observer hub until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(a.cfg.Server.Port)),
		Handler:           a.api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.observers.Run(gctx) })
	g.Go(func() error {
		a.log.Infof("listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.log.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the database
func (a *App) Close() error {
	_ = a.log.Sync()
	return a.store.Close()
}
