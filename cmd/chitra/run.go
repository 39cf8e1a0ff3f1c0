package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chitralabs/chitra/internal/capability"
	"github.com/chitralabs/chitra/internal/db"
	"github.com/chitralabs/chitra/internal/llm"
	"github.com/chitralabs/chitra/internal/logging"
	"github.com/chitralabs/chitra/internal/orchestrator"
	"github.com/chitralabs/chitra/internal/persona"
	"github.com/chitralabs/chitra/internal/store"
	"github.com/chitralabs/chitra/internal/voiceio"
)

// RunAssistant boots the orchestration core: open the database, wire the
// capability stores and the LLM gateway, run onboarding on first boot,
// start the proactive loop, and hand control to the conversation loop
// until an interrupt arrives.
func RunAssistant() {
	c := AppConfig

	if verbose {
		logging.SetDebug()
	}
	defer logging.Sync()

	if err := c.EnsureDataDir(); err != nil {
		fmt.Printf("\033[31mError: failed to initialize data directory: %v\033[0m\n", err)
		os.Exit(1)
	}

	database, err := db.Open(c.DBPath())
	if err != nil {
		fmt.Printf("\033[31mError: failed to open database: %v\033[0m\n", err)
		os.Exit(1)
	}
	defer database.Close()

	stores := capability.Stores{
		Contacts:  store.NewContacts(database),
		Calendar:  store.NewCalendar(database),
		Reminders: store.NewReminders(database),
		Tasks:     store.NewTasks(database),
		Memory:    store.NewMemory(database),
	}

	provider, err := llm.NewProvider(c.LLM)
	if err != nil {
		fmt.Printf("\033[31mError: %v\033[0m\n", err)
		os.Exit(1)
	}
	gateway := llm.NewGateway(provider, c.LLM.Timeout())
	defer gateway.Close()

	if c.LLM.Provider == "ollama" && !llm.CheckOllamaAvailable(c.LLM.BaseURL) {
		fmt.Printf("\033[33mWarning: Ollama is not reachable at %s - responses will fall back until it is.\033[0m\n", c.LLM.BaseURL)
	}

	identity := persona.NewLoader(c.DataDir)
	defer identity.Close()

	device := voiceio.NewConsole()
	registry := capability.BuildRegistry(stores, device)
	assembler := orchestrator.NewAssembler(identity, stores.Memory, stores.Calendar, stores.Reminders)
	core := orchestrator.NewCore(c, gateway, registry, assembler, stores, device)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\n\033[33mReceived signal: %v - shutting down...\033[0m\n", sig)
		cancel()
	}()

	onboarding := orchestrator.NewOnboarding(stores.Memory, device)
	firstBoot, err := onboarding.ShouldRun()
	if err != nil {
		logging.Errorf("First-boot check failed: %v", err)
	}
	if firstBoot {
		if err := onboarding.Run(ctx); err != nil {
			logging.Errorf("Onboarding did not complete: %v", err)
			return
		}
	}

	if !noProactive {
		proactive := orchestrator.NewProactiveLoop(core, c.ProactiveInterval())
		if err := proactive.Start(); err != nil {
			logging.Errorf("Proactive loop failed to start: %v", err)
		} else {
			// Stop before the deferred gateway.Close so no tick is
			// still mid-call when the provider goes away.
			defer proactive.Stop()
		}
	}

	fmt.Println("Chitra is listening. Say something, or Ctrl+C to exit.")
	if err := core.Run(ctx); err != nil {
		logging.Errorf("Conversation loop exited: %v", err)
	}
}
