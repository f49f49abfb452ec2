package app

import (
	"hash/maphash"
	"math/rand/v2"

	"github.com/vancomm/minesweeper-engine/internal/handlers"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (a *App) loadRoutes() {
	game := handlers.NewGameHandler(
		a.log, a.sessions, a.jwt, a.ws, a.cfg.AllPresets(), a.newRand,
	)

	a.router.HandleFunc("GET /v1/presets", game.Presets)
	a.router.HandleFunc("POST /v1/game", game.NewGame)
	a.router.HandleFunc("GET /v1/game/{id}", game.Fetch)
	a.router.HandleFunc("POST /v1/game/{id}/reveal", game.Reveal)
	a.router.HandleFunc("POST /v1/game/{id}/flag", game.Flag)
	a.router.HandleFunc("POST /v1/game/{id}/chord", game.Chord)
	a.router.HandleFunc("POST /v1/game/{id}/forfeit", game.Forfeit)
	a.router.HandleFunc("POST /v1/game/{id}/batch", game.Batch)
	a.router.HandleFunc("GET /v1/game/{id}/connect", game.Connect)
}
