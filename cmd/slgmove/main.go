package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/l1jgo/slgmove/internal/config"
	"github.com/l1jgo/slgmove/internal/core/event"
	coresys "github.com/l1jgo/slgmove/internal/core/system"
	"github.com/l1jgo/slgmove/internal/data"
	"github.com/l1jgo/slgmove/internal/handler"
	gonet "github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"github.com/l1jgo/slgmove/internal/persist"
	"github.com/l1jgo/slgmove/internal/scripting"
	"github.com/l1jgo/slgmove/internal/system"
	"github.com/l1jgo/slgmove/internal/world"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/server.toml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Load battlefields and deploy the roster
	printSection("data")

	fields, err := data.LoadBattlefields(cfg.Data.MapList, cfg.Data.TileDir)
	if err != nil {
		return fmt.Errorf("load battlefields: %w", err)
	}
	printStat("battlefields", fields.Count())

	worldState := world.NewState()
	for _, id := range fields.IDs() {
		terrain, err := fields.NewTerrain(id)
		if err != nil {
			return fmt.Errorf("build terrain %d: %w", id, err)
		}
		worldState.AddBattlefield(id, fields.Get(id).Name, terrain)
	}

	roster, err := data.LoadRoster(cfg.Data.Roster)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	placed, err := deployRoster(worldState, roster, cfg.Movement.DefaultAllowance)
	if err != nil {
		return err
	}
	printStat("units deployed", placed)
	fmt.Println()

	// 4. Optional PostgreSQL
	printSection("database")

	var (
		accountRepo *persist.AccountRepo
		online      system.OnlineMarker
		persistSys  *system.PersistenceSystem
		bus         = event.NewBus()
	)
	if cfg.Database.DSN == "" {
		printSkip("no dsn configured, running without persistence")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.Open(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK(fmt.Sprintf("PostgreSQL connected (schema v%d)", db.SchemaVersion))

		accountRepo = persist.NewAccountRepo(db)
		online = accountRepo
		unitRepo := persist.NewUnitRepo(db)

		if n, err := accountRepo.ResetOnline(ctx); err != nil {
			return fmt.Errorf("reset online flags: %w", err)
		} else if n > 0 {
			log.Warn("cleared stale online flags", zap.Int64("accounts", n))
		}

		restored, err := restorePositions(ctx, worldState, unitRepo, log)
		if err != nil {
			return err
		}
		printStat("positions restored", restored)

		persistSys = system.NewPersistenceSystem(worldState, bus, unitRepo, persist.NewMoveLogRepo(db), log, cfg.Persist.FlushIntervalTicks)
	}
	fmt.Println()

	// 5. Lua movement hooks
	printSection("scripting")
	engine, err := scripting.NewEngine(cfg.Data.Scripts, cfg.Movement.MaxAllowance, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer engine.Close()
	printStat("lua scripts", engine.ScriptCount())
	fmt.Println()

	// 6. Packet handlers
	sessions := gonet.NewSessionStore()
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		AccountRepo: accountRepo,
		Config:      cfg,
		Log:         log,
		World:       worldState,
		Scripting:   engine,
		Bus:         bus,
		Sessions:    sessions,
	}
	handler.RegisterAll(pktReg, deps)

	// 7. Network server
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionOptions{
		InQueueSize:      cfg.Network.InQueueSize,
		OutQueueSize:     cfg.Network.OutQueueSize,
		PacketsPerSecond: cfg.Network.PacketsPerSecond,
		WriteTimeout:     cfg.Network.WriteTimeout,
	}, cfg.Network.MaxSessions, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 8. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, pktReg, sessions, online, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus, log))
	runner.Register(system.NewOutputSystem(sessions))
	if persistSys != nil {
		runner.Register(persistSys)
	}

	// 9. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	var pollCh <-chan time.Time
	if cfg.Network.InputPoll > 0 && cfg.Network.InputPoll < cfg.Network.TickRate {
		poll := time.NewTicker(cfg.Network.InputPoll)
		defer poll.Stop()
		pollCh = poll.C
	}

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			if took := runner.Tick(cfg.Network.TickRate); took > cfg.Network.TickRate {
				log.Warn("tick overran", zap.Duration("took", took), zap.Duration("budget", cfg.Network.TickRate))
			}
		case <-pollCh:
			runner.TickPhase(coresys.PhaseInput, cfg.Network.InputPoll)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			netServer.Shutdown()
			sessions.ForEach(func(s *gonet.Session) { s.Close() })
			// Two more ticks: the first drains input and marks accounts
			// offline, the second delivers the events it emitted.
			runner.Tick(cfg.Network.TickRate)
			runner.Tick(cfg.Network.TickRate)
			if persistSys != nil {
				persistSys.Flush()
			}
			log.Info("server stopped")
			return nil
		}
	}
}

// loadConfig reads SLGMOVE_CONFIG, or config/server.toml when unset. A
// missing default file falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	if p := os.Getenv("SLGMOVE_CONFIG"); p != "" {
		return config.Load(p)
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(defaultConfigPath)
}

// deployRoster places every roster unit on its battlefield.
func deployRoster(ws *world.State, roster []data.RosterEntry, defaultMove int) (int, error) {
	for _, entry := range roster {
		u, err := entry.Unit(defaultMove)
		if err != nil {
			return 0, err
		}
		if err := ws.PlaceUnit(entry.MapID, u); err != nil {
			return 0, fmt.Errorf("deploy roster: %w", err)
		}
	}
	return len(roster), nil
}

// restorePositions moves units to the cells saved by a previous run. Stored
// positions that no longer fit the map are skipped.
func restorePositions(ctx context.Context, ws *world.State, repo *persist.UnitRepo, log *zap.Logger) (int, error) {
	restored := 0
	var loadErr error
	ws.AllBattlefields(func(b *world.Battlefield) {
		if loadErr != nil {
			return
		}
		stored, err := repo.LoadPositions(ctx, b.ID)
		if err != nil {
			loadErr = err
			return
		}
		for _, p := range stored {
			pos, err := world.NewPosition(p.X, p.Y)
			if err == nil {
				err = b.RestorePosition(p.Name, pos)
			}
			if err != nil {
				log.Warn("stored position skipped", zap.Int16("map", b.ID), zap.Error(err))
				continue
			}
			restored++
		}
	})
	if loadErr != nil {
		return 0, fmt.Errorf("restore positions: %w", loadErr)
	}
	return restored, nil
}
