package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/egware/erpagent/agent"
	"github.com/egware/erpagent/agent/memory"
	"github.com/egware/erpagent/agent/persona"
	"github.com/egware/erpagent/agent/runner"
	"github.com/egware/erpagent/agent/tool"
	"github.com/egware/erpagent/odoo"
	configx "github.com/egware/erpagent/pkg/config"
	"github.com/egware/erpagent/pkg/llm"
	_ "github.com/egware/erpagent/pkg/logger/autoload"
	"github.com/egware/erpagent/server"
	"github.com/egware/erpagent/telegram"
)

type AppConfig struct {
	MemoryBackend string `split_words:"true" default:"memory"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	client, err := odoo.NewClient(*configx.MustNew[odoo.Config]("ODOO"))
	if err != nil {
		log.Fatal().Err(err).Msg("odoo client init failed")
	}

	contracts := odoo.NewContractOps(client)
	hr := odoo.NewHROps(client)
	finance := odoo.NewFinanceOps(client)

	registry := tool.NewRegistry()
	mustRegister(registry.Register(agent.PersonaContracts, tool.ContractBindings(contracts)...))
	mustRegister(registry.Register(agent.PersonaHR, tool.HRBindings(hr)...))
	mustRegister(registry.Register(agent.PersonaFinance, tool.FinanceBindings(finance)...))

	llmCfg := configx.MustNew[llm.Config]("LLM")
	base, err := llmCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("llm init failed")
	}

	run, err := runner.New(ctx, base, registry, newStore(appCfg.MemoryBackend), persona.Load())
	if err != nil {
		log.Fatal().Err(err).Msg("runner init failed")
	}

	deps := server.Deps{
		Conversation: run,
		Contracts:    contracts,
		HR:           hr,
		Finance:      finance,
		ERP:          client,
	}

	if os.Getenv("TELEGRAM_TOKEN") != "" {
		bot, err := telegram.New(*configx.MustNew[telegram.Config]("TELEGRAM"), run)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram bot init failed")
		}
		deps.Webhook = bot.Webhook()
	}

	srv, err := server.New(*configx.MustNew[server.Config]("HTTP"), deps)
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server shut down")
}

func newStore(backend string) memory.Store {
	if backend == "redis" {
		return memory.NewRedisStore(*configx.MustNew[memory.RedisConfig]("REDIS"))
	}
	return memory.NewInMemoryStore()
}

func mustRegister(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("tool registration failed")
	}
}
