package handlers

import (
	"context"
	"errors"
	"io"
	"maps"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/middleware"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

const maxBatchBytes = 64 << 10

var (
	errNoToken      = errors.New("session token required")
	errForeignToken = errors.New("token belongs to another session")
	errBadSessionID = errors.New("invalid session id")
)

type GameHandler struct {
	log      logrus.FieldLogger
	sessions repository.Sessions
	jwt      *config.JWT
	ws       *config.WebSocket
	presets  map[string]mines.Params
	newRand  func() *rand.Rand
	now      func() time.Time
}

// NewGameHandler serves game sessions. newRand is called once per request
// that may place mines; a [rand.Rand] is never shared between requests.
func NewGameHandler(
	log logrus.FieldLogger,
	sessions repository.Sessions,
	jwt *config.JWT,
	ws *config.WebSocket,
	presets map[string]mines.Params,
	newRand func() *rand.Rand,
) *GameHandler {
	handler := &GameHandler{
		log:      log,
		sessions: sessions,
		jwt:      jwt,
		ws:       ws,
		presets:  presets,
		newRand:  newRand,
		now:      time.Now,
	}
	return handler
}

func (g *GameHandler) Presets(w http.ResponseWriter, r *http.Request) {
	names := slices.Sorted(maps.Keys(g.presets))
	dtos := make([]PresetDTO, 0, len(names))
	for _, name := range names {
		dtos = append(dtos, PresetDTO{Name: name, Params: g.presets[name]})
	}
	sendJSONOrLog(w, g.log, http.StatusOK, dtos)
}

func (g *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseNewGameDTO(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
		return
	}
	params, err := dto.Params(g.presets)
	if err != nil {
		sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
		return
	}
	board, err := mines.New(params, g.newRand())
	if err != nil {
		sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
		return
	}

	now := g.now()
	s := session.New(board, now)
	if dto.Row != nil {
		cmd := session.Command{Op: session.OpReveal, Row: *dto.Row, Col: *dto.Col}
		if err := s.Apply(cmd, now); err != nil {
			sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
			return
		}
	}

	if err := g.sessions.Create(r.Context(), s); err != nil {
		sendStoreError(w, g.log, err)
		return
	}
	token, err := g.jwt.SignSession(s.ID, now)
	if err != nil {
		g.log.WithError(err).Error("unable to sign session token")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	g.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"params":     params.String(),
	}).Debug("created game session")

	sendJSONOrLog(w, g.log, http.StatusCreated, NewGameResponse{
		JSON:  s.View(now),
		Token: token,
	})
}

func parseSessionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errBadSessionID
	}
	return id, nil
}

func (g *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
		return
	}
	s, err := g.sessions.Get(r.Context(), id)
	if err != nil {
		sendStoreError(w, g.log, err)
		return
	}
	sendJSONOrLog(w, g.log, http.StatusOK, s.View(g.now()))
}

// authorize checks that the request carries the token issued for the
// session in its path.
func (g *GameHandler) authorize(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseSessionID(r)
	if err != nil {
		sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
		return 0, false
	}
	claims, ok := middleware.SessionClaims(r.Context())
	if !ok {
		sendErrorOrLog(w, g.log, http.StatusUnauthorized, errNoToken)
		return 0, false
	}
	if claims.SessionID != id {
		sendErrorOrLog(w, g.log, http.StatusForbidden, errForeignToken)
		return 0, false
	}
	return id, true
}

func (g *GameHandler) load(ctx context.Context, id int64) (*session.Session, error) {
	s, err := g.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Board.UseRand(g.newRand())
	return s, nil
}

// mutate loads session id, runs apply and stores the result. Nothing is
// stored when apply fails. Callers authorize first.
func (g *GameHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	id int64,
	apply func(s *session.Session, now time.Time) (any, error),
) {
	s, err := g.load(r.Context(), id)
	if err != nil {
		sendStoreError(w, g.log, err)
		return
	}

	now := g.now()
	before := s.Board.Status
	resp, err := apply(s, now)
	var batchErr *session.BatchError
	if errors.As(err, &batchErr) {
		sendJSONOrLog(w, g.log, http.StatusBadRequest, BatchErrorResponse{
			Line:  batchErr.Line,
			Error: batchErr.Err.Error(),
		})
		return
	}
	if err != nil {
		sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
		return
	}

	if err := g.sessions.Update(r.Context(), s); err != nil {
		sendStoreError(w, g.log, err)
		return
	}
	if before != s.Board.Status {
		g.log.WithFields(logrus.Fields{
			"session_id": s.ID,
			"from":       before.String(),
			"to":         s.Board.Status.String(),
		}).Debug("game status changed")
	}
	sendJSONOrLog(w, g.log, http.StatusOK, resp)
}

func (g *GameHandler) move(op session.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := g.authorize(w, r)
		if !ok {
			return
		}
		pos, err := ParsePositionDTO(r.URL.Query())
		if err != nil {
			sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
			return
		}
		cmd := session.Command{Op: op, Row: pos.Row, Col: pos.Col}
		g.mutate(w, r, id, func(s *session.Session, now time.Time) (any, error) {
			if err := s.Apply(cmd, now); err != nil {
				return nil, err
			}
			return s.View(now), nil
		})
	}
}

func (g *GameHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	g.move(session.OpReveal)(w, r)
}

func (g *GameHandler) Flag(w http.ResponseWriter, r *http.Request) {
	g.move(session.OpFlag)(w, r)
}

func (g *GameHandler) Chord(w http.ResponseWriter, r *http.Request) {
	g.move(session.OpChord)(w, r)
}

func (g *GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	id, ok := g.authorize(w, r)
	if !ok {
		return
	}
	g.mutate(w, r, id, func(s *session.Session, now time.Time) (any, error) {
		if err := s.Apply(session.Command{Op: session.OpForfeit}, now); err != nil {
			return nil, err
		}
		return s.View(now), nil
	})
}

// Batch runs a newline-separated command batch from the request body. The
// body is read only after the token is checked.
func (g *GameHandler) Batch(w http.ResponseWriter, r *http.Request) {
	id, ok := g.authorize(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		sendErrorOrLog(w, g.log, http.StatusRequestEntityTooLarge, err)
		return
	} else if err != nil {
		sendErrorOrLog(w, g.log, http.StatusBadRequest, err)
		return
	}
	g.mutate(w, r, id, func(s *session.Session, now time.Time) (any, error) {
		n, err := s.ApplyBatch(string(body), now)
		if err != nil {
			return nil, err
		}
		return BatchResponse{JSON: s.View(now), Applied: n}, nil
	})
}
