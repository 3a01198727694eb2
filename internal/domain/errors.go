package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrAggregation   = errors.New("fallo al agregar datos de facturación")
	ErrRenderTimeout = errors.New("tiempo de renderizado excedido")
	ErrNotDeletable  = errors.New("la línea de gasto no se puede eliminar")
)
