package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session id is unknown or already closed.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrCatalogNotFound indicates the room catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidCatalog indicates the catalog does not match the configured rules.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrInvalidRules indicates a game configuration that cannot be played.
	ErrInvalidRules = errors.New("invalid game rules")
	// ErrInvalidPlayerName is returned by callers that validate names before starting a game.
	ErrInvalidPlayerName = errors.New("player name must be at least 2 characters")
)
