package table

import (
	"chiptable/internal/apperr"
	"chiptable/internal/game"
	"chiptable/internal/ledger"
)

var (
	ErrMissingFields      = apperr.New(apperr.KindValidation, "missing_fields", "Missing required fields")
	ErrInvalidDisplayName = apperr.New(apperr.KindValidation, "invalid_display_name", "Display name must be 2-20 letters or digits")
	ErrRoomNotFound       = apperr.New(apperr.KindNotFound, "room_not_found", "Room not found")
	ErrPlayerNotFound     = apperr.New(apperr.KindNotFound, "player_not_found", "Player not found")
	ErrTableFull          = apperr.New(apperr.KindBusinessRule, "table_full", "Table is full")
	ErrInsufficientChips  = apperr.New(apperr.KindBusinessRule, "insufficient_balance", "Insufficient chips to join a table")
	ErrCodeExhausted      = apperr.New(apperr.KindIntegrity, "room_code_exhausted", "Unable to generate unique room code")
	ErrNoActiveSession    = apperr.New(apperr.KindIntegrity, "session_missing", "Seat has no open game session")
)

// Errors raised by the chip rules and the ledger surface unchanged.
var (
	ErrInvalidAction = game.ErrInvalidAction
	ErrInvalidBet    = game.ErrInvalidBet
	ErrInvalidTake   = game.ErrInvalidTake
	ErrStackTooSmall = game.ErrStackTooSmall
	ErrPotTooSmall   = game.ErrPotTooSmall
	ErrSeatNotSeated = game.ErrSeatNotSeated
	ErrContention    = ledger.ErrContention
)

var errRoomCodeTaken = apperr.New(apperr.KindConflict, "room_code_taken", "")
