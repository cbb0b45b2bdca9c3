package server

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api/v1")

	api.Get("/game/state", s.gameStateHandler)
	api.Get("/game/history", s.historyHandler)
	api.Get("/game/verify", s.verifyHandler)
	api.Post("/game/bet", s.placeBetHandler)
	api.Post("/game/bet/cancel", s.cancelBetHandler)
	api.Post("/game/cashout", s.cashoutHandler)

	api.Post("/autobet/start", s.startAutoBetHandler)
	api.Post("/autobet/stop", s.stopAutoBetHandler)
	api.Get("/autobet/:sessionId", s.autoBetSessionHandler)

	api.Get("/user/:userId/stats", s.playerStatsHandler)
	api.Get("/user/:userId/balance", s.getBalanceHandler)
	api.Post("/user/:userId/balance", s.setBalanceHandler)

	s.App.Get("/ws", websocket.New(s.gameWebSocketHandler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"database": s.db.Health(),
		"cache":    s.cache.Health(),
		"game": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.ClientCount(),
		},
	})
}
