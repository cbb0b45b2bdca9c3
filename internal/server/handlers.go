package server

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"crashflight/internal/game"
)

func (s *FiberServer) gameStateHandler(c *fiber.Ctx) error {
	snap, ok := s.engine.CurrentRound()
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "no active round"})
	}
	return c.JSON(snap)
}

func (s *FiberServer) historyHandler(c *fiber.Ctx) error {
	n := c.QueryInt("n", 20)
	return c.JSON(fiber.Map{"rounds": s.engine.RecentHistory(n)})
}

// verifyHandler lets a player replay a revealed round: given the seeds and
// nonce it recomputes the crash point and checks the commitment.
func (s *FiberServer) verifyHandler(c *fiber.Ctx) error {
	serverSeed := c.Query("server_seed")
	clientSeed := c.Query("client_seed")
	commitment := c.Query("commitment")
	nonce, err := strconv.ParseInt(c.Query("nonce", "0"), 10, 64)
	if serverSeed == "" || clientSeed == "" || err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "server_seed, client_seed and nonce are required"})
	}

	resp := fiber.Map{
		"crash_point": game.ComputeCrashPoint(serverSeed, clientSeed, nonce),
	}
	if commitment != "" {
		resp["commitment_valid"] = game.VerifyCommitment(serverSeed, commitment)
	}
	return c.JSON(resp)
}

func (s *FiberServer) placeBetHandler(c *fiber.Ctx) error {
	var req struct {
		PlayerID    string  `json:"player_id"`
		Stake       float64 `json:"stake"`
		AutoCashout float64 `json:"auto_cashout"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.PlayerID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "player_id is required"})
	}

	resp := s.engine.PlaceBet(req.PlayerID, req.Stake, req.AutoCashout)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *FiberServer) cancelBetHandler(c *fiber.Ctx) error {
	var req struct {
		PlayerID string `json:"player_id"`
		BetID    string `json:"bet_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.PlayerID == "" || req.BetID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "player_id and bet_id are required"})
	}

	resp := s.engine.CancelBet(req.PlayerID, req.BetID)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *FiberServer) cashoutHandler(c *fiber.Ctx) error {
	var req struct {
		PlayerID string `json:"player_id"`
		BetID    string `json:"bet_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.PlayerID == "" || req.BetID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "player_id and bet_id are required"})
	}

	resp := s.engine.Cashout(req.PlayerID, req.BetID)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *FiberServer) startAutoBetHandler(c *fiber.Ctx) error {
	var cfg game.AutoBetConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	sessionID, err := s.autobet.StartSession(cfg)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"session_id": sessionID})
}

func (s *FiberServer) stopAutoBetHandler(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.SessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "session_id is required"})
	}

	if err := s.autobet.StopSession(req.SessionID); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"stopped": true})
}

func (s *FiberServer) autoBetSessionHandler(c *fiber.Ctx) error {
	session, err := s.autobet.Session(c.Params("sessionId"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(session)
}

func (s *FiberServer) playerStatsHandler(c *fiber.Ctx) error {
	playerID := c.Params("userId")
	if playerID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "user id is required"})
	}
	return c.JSON(s.engine.PlayerStatistics(playerID))
}

func (s *FiberServer) getBalanceHandler(c *fiber.Ctx) error {
	playerID := c.Params("userId")
	balance, err := s.ledger.Balance(c.Context(), playerID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"player_id": playerID, "balance": balance})
}

// setBalanceHandler overwrites a balance. Test/admin surface only; a real
// deployment would sit this behind the payments pipeline.
func (s *FiberServer) setBalanceHandler(c *fiber.Ctx) error {
	playerID := c.Params("userId")
	var body struct {
		Balance float64 `json:"balance"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.ledger.SetBalance(c.Context(), playerID, body.Balance); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to set balance"})
	}
	return c.JSON(fiber.Map{"player_id": playerID, "balance": body.Balance})
}

// gameWebSocketHandler serves realtime round updates and accepts bet and
// cashout commands over the socket.
func (s *FiberServer) gameWebSocketHandler(conn *websocket.Conn) {
	playerID := conn.Query("player_id", "anonymous")
	client := s.hub.RegisterClient(conn, playerID)
	defer s.hub.UnregisterClient(client)

	if snap, ok := s.engine.CurrentRound(); ok {
		client.Send(fiber.Map{"type": "initial_state", "data": snap})
	}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] read error for player %s: %v", playerID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg struct {
			Type        string  `json:"type"`
			Stake       float64 `json:"stake"`
			AutoCashout float64 `json:"auto_cashout"`
			BetID       string  `json:"bet_id"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "place_bet":
			client.Send(s.engine.PlaceBet(playerID, msg.Stake, msg.AutoCashout))
		case "cancel_bet":
			client.Send(s.engine.CancelBet(playerID, msg.BetID))
		case "cashout":
			client.Send(s.engine.Cashout(playerID, msg.BetID))
		case "ping":
			client.Send(fiber.Map{"type": "pong"})
		default:
			client.Send(fiber.Map{"error": fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}
