package repository

import "errors"

var (
	// ErrNotFound indica que el registro pedido no existe.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict indica que la sesion fue mutada por otra escritura
	// entre la lectura y el guardado (chequeo optimista de version).
	ErrVersionConflict = errors.New("session version conflict")
)
