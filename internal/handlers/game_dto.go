package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/schema"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrHalfPosition      = errors.New("row and col must be given together")
)

type NewGameDTO struct {
	Difficulty string `schema:"difficulty"`
	Rows       int    `schema:"rows"`
	Cols       int    `schema:"cols"`
	MineCount  int    `schema:"mine_count"`
	Row        *int   `schema:"row"` // optional first click
	Col        *int   `schema:"col"`
}

func ParseNewGameDTO(src map[string][]string) (NewGameDTO, error) {
	var dto NewGameDTO
	err := decoder.Decode(&dto, src)
	if err == nil && (dto.Row == nil) != (dto.Col == nil) {
		err = ErrHalfPosition
	}
	return dto, err
}

// Params resolves a named difficulty or falls back to explicit dimensions.
func (d NewGameDTO) Params(presets map[string]mines.Params) (mines.Params, error) {
	if d.Difficulty == "" {
		return mines.Params{Rows: d.Rows, Cols: d.Cols, MineCount: d.MineCount}, nil
	}
	p, ok := presets[strings.ToLower(d.Difficulty)]
	if !ok {
		return mines.Params{}, fmt.Errorf("%w %q", ErrUnknownDifficulty, d.Difficulty)
	}
	return p, nil
}

type PositionDTO struct {
	Row int `schema:"row,required"`
	Col int `schema:"col,required"`
}

func ParsePositionDTO(src map[string][]string) (PositionDTO, error) {
	var dto PositionDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type NewGameResponse struct {
	session.JSON
	Token string `json:"token"`
}

type BatchResponse struct {
	session.JSON
	Applied int `json:"applied"`
}

type BatchErrorResponse struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type PresetDTO struct {
	Name string `json:"name"`
	mines.Params
}
