package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ashvale/server/internal/config"
	"github.com/ashvale/server/internal/core/event"
	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/data"
	"github.com/ashvale/server/internal/dialog"
	"github.com/ashvale/server/internal/handler"
	"github.com/ashvale/server/internal/ident"
	gonet "github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/persist"
	"github.com/ashvale/server/internal/scripting"
	"github.com/ashvale/server/internal/system"
	"github.com/ashvale/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Ashvale  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        authoritative world server         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("ASHVALE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	// 4. Create repositories
	accountRepo := persist.NewAccountRepo(db)
	charRepo := persist.NewCharacterRepo(db)
	invRepo := persist.NewInventoryRepo(db)
	shopLog := persist.NewShopLogRepo(db)
	idStore := persist.NewEntityIDStore(db)

	// Stale online flags survive a crash; clear them before accepting logins.
	if err := accountRepo.ClearOnlineFlags(ctx); err != nil {
		return fmt.Errorf("clear online flags: %w", err)
	}

	// 5. Entity identity pool and world clock
	ids := ident.NewAllocator(idStore, cfg.Game.IDPoolCritical, cfg.Game.IDPoolBatch, log)

	seed := cfg.Game.RngSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	clock := world.NewTickClock()
	w := world.NewWorld(clock, ids, seed, log)

	// 6. Load static data
	printSection("data")

	mapTable, err := data.LoadMapTable(cfg.Data.MapList)
	if err != nil {
		return fmt.Errorf("load map table: %w", err)
	}
	for id, def := range mapTable.All() {
		m := world.NewGameMap(world.MapID(id), def.Info.Name, def.Grid, def.Info.CellSize, cfg.Game.ViewRange, log)
		w.AddMap(m)
	}
	printStat("maps", mapTable.Count())

	npcTable, err := data.LoadNPCTable(cfg.Data.NPCList)
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("npc templates", npcTable.Count())

	spawnList, err := data.LoadSpawnList(cfg.Data.SpawnList)
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}

	shopTable, err := data.LoadShopTable(cfg.Data.ShopList)
	if err != nil {
		return fmt.Errorf("load shop table: %w", err)
	}
	printStat("shops", shopTable.Count())

	dialogs, err := dialog.Load(cfg.Data.Dialogs)
	if err != nil {
		return fmt.Errorf("load dialogs: %w", err)
	}
	printStat("dialog trees", dialogs.Count())

	// 7. Lua scripting engine
	luaEngine, err := scripting.NewEngine(cfg.Data.Scripts, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua scripts loaded")

	// 8. Spawn NPCs
	aiRegistry := system.NewAIRegistry(log)
	spawner := system.NewSpawner(w, npcTable, shopTable, dialogs, aiRegistry, luaEngine, log)
	if err := spawner.SpawnAll(ctx, spawnList); err != nil {
		return fmt.Errorf("spawn npcs: %w", err)
	}
	printStat("npcs spawned", w.CharacterCount())
	fmt.Println()

	// 9. Event bus and packet handler registry
	bus := event.NewBus()
	w.OnKill = func(victim, killer *world.Character) {
		ev := event.EntityKilled{Victim: victim.ID}
		if killer != nil {
			ev.Killer = killer.ID
		}
		event.Emit(bus, ev)
	}
	event.Subscribe(bus, func(ev event.PlayerLoggedIn) {
		log.Info("player entered world",
			zap.Int32("char_id", int32(ev.EntityID)),
			zap.String("account", ev.AccountName))
	})
	event.Subscribe(bus, func(ev event.PlayerDisconnected) {
		log.Info("player left world",
			zap.Int32("char_id", int32(ev.EntityID)),
			zap.Uint64("session", ev.SessionID))
	})
	event.Subscribe(bus, func(ev event.EntityKilled) {
		log.Debug("entity killed",
			zap.Int32("victim", int32(ev.Victim)),
			zap.Int32("killer", int32(ev.Killer)))
	})

	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		AccountRepo: accountRepo,
		CharRepo:    charRepo,
		InvRepo:     invRepo,
		ShopLog:     shopLog,
		IDs:         ids,
		Config:      cfg,
		Log:         log,
		World:       w,
		Scripting:   luaEngine,
		Bus:         bus,
		NPCs:        npcTable,
		Shops:       shopTable,
		Dialogs:     dialogs,
	}
	handler.RegisterAll(pktReg, deps)

	// 10. Network server
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		cfg.Network.PacketsPerSecond,
		cfg.Network.WriteTimeout,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	sessions := gonet.NewSessionStore()
	go netServer.AcceptLoop()

	// 11. Systems
	runner := coresys.NewRunner()
	persistSys := system.NewPersistenceSystem(w, charRepo, invRepo, cfg.Game.PersistIntervalTicks, log)
	runner.Register(system.NewInputSystem(netServer, pktReg, sessions, deps, persistSys, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewAISystem(w))
	runner.Register(system.NewMovementSystem(w))
	runner.Register(system.NewRespawnSystem(w))
	runner.Register(system.NewOutputSystem(w, sessions))
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(w))

	// 12. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	// Poll the input phase between full ticks so packets queue into handlers
	// with latency well under the tick interval.
	inputEvery := cfg.Network.TickRate / 4
	if inputEvery < 10*time.Millisecond {
		inputEvery = 10 * time.Millisecond
	}
	inputTicker := time.NewTicker(inputEvery)
	defer inputTicker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			clock.Advance(cfg.Network.TickRate)
			runner.Tick(cfg.Network.TickRate)
		case <-inputTicker.C:
			runner.TickPhase(coresys.PhaseInput, inputEvery)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			persistSys.SaveAllPlayers()
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := accountRepo.ClearOnlineFlags(saveCtx); err != nil {
				log.Error("clear online flags on shutdown", zap.Error(err))
			}
			saveCancel()
			netServer.Shutdown()
			log.Info("server stopped")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
