package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/vinayprograms/gptswarm/bus"
	"github.com/vinayprograms/gptswarm/chat"
	"github.com/vinayprograms/gptswarm/credentials"
	"github.com/vinayprograms/gptswarm/llm"
	"github.com/vinayprograms/gptswarm/logging"
	"github.com/vinayprograms/gptswarm/ratelimit"
	"github.com/vinayprograms/gptswarm/shutdown"
	"github.com/vinayprograms/gptswarm/swarm"
)

// demoBatchSize and demoPrompt form the fixed demonstration batch the
// swarm subcommand dispatches.
const (
	demoBatchSize = 32
	demoPrompt    = "Please explain me the big bang in simple terms"
)

// fileConfig is the on-disk configuration layout.
type fileConfig struct {
	Swarm swarm.Config     `toml:"swarm"`
	LLM   llm.ClientConfig `toml:"llm"`
}

func newSwarmCmd() *cobra.Command {
	var (
		configPath string
		natsURL    string
		verbose    bool
	)
	cfg := fileConfig{
		Swarm: swarm.DefaultConfig(),
		LLM: llm.ClientConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			MaxTokens: 1024,
		},
	}
	cfg.Swarm.TokensPerMinute = 180000
	cfg.Swarm.RequestsPerMinute = 3000

	cmd := &cobra.Command{
		Use:   "swarm",
		Short: "Dispatch the demonstration batch and print each reply",
		Long: `Dispatches a fixed batch of identical conversations against the
configured provider, bounded by the tokens-per-minute and
requests-per-minute quotas, and prints each reply in input order.
A conversation that failed permanently prints an absent marker.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
					return fmt.Errorf("config %s: %w", configPath, err)
				}
			}
			return runSwarm(cfg, natsURL, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().StringVar(&cfg.LLM.Provider, "provider", cfg.LLM.Provider, "completion provider (openai, anthropic, google)")
	cmd.Flags().StringVar(&cfg.LLM.Model, "model", cfg.LLM.Model, "model identifier")
	cmd.Flags().IntVar(&cfg.Swarm.TokensPerMinute, "tokens-per-minute", cfg.Swarm.TokensPerMinute, "token quota per minute")
	cmd.Flags().IntVar(&cfg.Swarm.RequestsPerMinute, "requests-per-minute", cfg.Swarm.RequestsPerMinute, "request quota per minute")
	cmd.Flags().IntVar(&cfg.Swarm.ModelTokenSize, "model-token-size", cfg.Swarm.ModelTokenSize, "upper-bound token estimate per request")
	cmd.Flags().IntVar(&cfg.Swarm.WorkerCount, "workers", cfg.Swarm.WorkerCount, "concurrent workers (0 = batch size, capped)")
	cmd.Flags().IntVar(&cfg.Swarm.MaxRetries, "max-retries", cfg.Swarm.MaxRetries, "retries per failure category")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "publish progress and capacity events to this NATS server")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func runSwarm(cfg fileConfig, natsURL string, verbose bool) error {
	log := logging.New().WithComponent("cli")
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logging.LevelDebug)
	}

	// API key resolution: config file, then credentials.toml, then env.
	if cfg.LLM.APIKey == "" {
		creds, path, err := credentials.Load()
		if err != nil {
			return fmt.Errorf("credentials %s: %w", path, err)
		}
		cfg.LLM.APIKey = creds.GetAPIKey(cfg.LLM.Provider)
	}

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return err
	}

	var eventBus bus.EventBus
	if natsURL != "" {
		natsCfg := bus.DefaultNATSConfig()
		natsCfg.URL = natsURL
		natsCfg.Name = "gptswarm"
		eventBus, err = bus.NewNATSBus(natsCfg)
		if err != nil {
			return fmt.Errorf("nats %s: %w", natsURL, err)
		}
	} else {
		eventBus = bus.NewMemoryBus(bus.DefaultConfig())
	}
	defer eventBus.Close()

	watchEvents(eventBus, log)

	engineLog := logging.New().WithComponent("swarm")
	engineLog.SetOutput(os.Stderr)
	if verbose {
		engineLog.SetLevel(logging.LevelDebug)
	}

	engine, err := swarm.New(cfg.Swarm, client,
		swarm.WithBus(eventBus), swarm.WithLogger(engineLog))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := shutdown.NewCoordinator(shutdown.DefaultConfig())
	coord.RegisterFunc("batch", func(context.Context) error {
		cancel()
		return nil
	})
	coord.HandleSignals()

	batch := make([]chat.Conversation, demoBatchSize)
	for i := range batch {
		batch[i] = chat.User(demoPrompt)
	}

	results, err := engine.Swarm(ctx, batch)
	if err != nil {
		return err
	}

	for i, msg := range results {
		fmt.Printf("--- conversation %d ---\n", i)
		if msg == nil {
			fmt.Println("<no result>")
			continue
		}
		fmt.Println(msg.Content)
	}
	return nil
}

// watchEvents logs progress and capacity announcements from the bus.
func watchEvents(b bus.EventBus, log *logging.Logger) {
	if sub, err := b.Subscribe(bus.SubjectProgress); err == nil {
		go func() {
			for msg := range sub.Messages() {
				var p swarm.Progress
				if json.Unmarshal(msg.Data, &p) != nil {
					continue
				}
				log.Debug("progress", map[string]interface{}{
					"index":     p.Index,
					"success":   p.Success,
					"completed": p.Completed,
					"total":     p.Total,
				})
			}
		}()
	}

	_, _ = ratelimit.Watch(b, func(update *ratelimit.CapacityUpdate) {
		log.Warn("capacity reduced", map[string]interface{}{
			"resource": update.Resource,
			"capacity": update.NewCapacity,
			"reason":   update.Reason,
		})
	})
}
