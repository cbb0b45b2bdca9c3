package server

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"crashflight/internal/cache"
	"crashflight/internal/config"
	"crashflight/internal/database"
	"crashflight/internal/game"
)

type FiberServer struct {
	*fiber.App

	cfg     config.Config
	db      database.Service
	cache   cache.Service
	ledger  *game.RedisLedger
	engine  *game.Engine
	autobet *game.AutoBetManager
	hub     *game.Hub

	auditCancel context.CancelFunc
}

func New() *FiberServer {
	cfg := config.Load()

	db := database.New()

	redisService := cache.New()
	if redisService == nil {
		log.Fatal("[SERVER] Redis is required: it backs the wallet ledger")
	}

	ledger := game.NewRedisLedger(redisService.GetClient())
	engine := game.NewEngine(game.Config{
		MinStake:        cfg.MinStake,
		MaxStake:        cfg.MaxStake,
		BettingDuration: cfg.BettingDuration,
		TickInterval:    cfg.TickInterval,
		InterRoundDelay: cfg.InterRoundDelay,
		HistorySize:     cfg.HistorySize,
	}, ledger)
	autobet := game.NewAutoBetManager(engine)
	hub := game.NewHub()

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "crashflight",
			AppName:       "crashflight",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		cfg:     cfg,
		db:      db,
		cache:   redisService,
		ledger:  ledger,
		engine:  engine,
		autobet: autobet,
		hub:     hub,
	}

	// Fan engine events out to websocket clients and the audit sink
	// before the first round starts so nothing is missed.
	go server.pumpEvents(engine.Subscribe(512))

	auditCtx, auditCancel := context.WithCancel(context.Background())
	server.auditCancel = auditCancel
	audit := database.NewAuditStore(db.Pool())
	go audit.Consume(auditCtx, engine.Subscribe(1024))

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	go hub.Run()
	engine.Start()
	autobet.Start()
	log.Println("[SERVER] engine, autobet manager and hub started")

	return server
}

// pumpEvents translates typed engine events into the wire messages
// clients already understand.
func (s *FiberServer) pumpEvents(events <-chan game.Event) {
	for ev := range events {
		switch ev.Type {
		case game.EventRoundStarted:
			s.hub.Broadcast(fiber.Map{
				"type":       "round_start",
				"round_id":   ev.RoundID,
				"commitment": ev.Commitment,
				"time_left":  s.cfg.BettingDuration.Seconds(),
			})
		case game.EventRoundFlying:
			s.hub.Broadcast(fiber.Map{
				"type":     "round_running",
				"round_id": ev.RoundID,
			})
		case game.EventTick:
			s.hub.Broadcast(fiber.Map{
				"type":       "update",
				"round_id":   ev.RoundID,
				"multiplier": ev.Multiplier,
			})
		case game.EventBetPlaced:
			s.hub.Broadcast(fiber.Map{
				"type":      "bet_placed",
				"round_id":  ev.RoundID,
				"bet_id":    ev.Bet.ID,
				"player_id": ev.Bet.PlayerID,
				"stake":     ev.Bet.Stake,
			})
		case game.EventBetSettled:
			s.hub.Broadcast(fiber.Map{
				"type":       "bet_settled",
				"round_id":   ev.RoundID,
				"bet_id":     ev.Bet.ID,
				"player_id":  ev.Bet.PlayerID,
				"status":     ev.Bet.Status,
				"multiplier": ev.Bet.CashoutMultiplier,
				"payout":     ev.Bet.Payout,
			})
		case game.EventRoundCrashed:
			s.hub.Broadcast(fiber.Map{
				"type":        "crash",
				"round_id":    ev.RoundID,
				"multiplier":  ev.CrashPoint,
				"server_seed": ev.ServerSeed,
				"client_seed": ev.ClientSeed,
				"nonce":       ev.Nonce,
			})
		}
	}
}

// Shutdown stops the game components, then closes external connections.
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] shutting down...")

	if s.autobet != nil {
		s.autobet.Stop()
	}
	if s.engine != nil {
		s.engine.Stop()
	}
	if s.auditCancel != nil {
		s.auditCancel()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
