package handlers

import (
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/callbacks/callbacktypes"
)

// Handlers обрабатывает команды и текстовые сообщения
type Handlers struct {
	*callbacktypes.Handler
	parser *TimeParser
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(deps *callbacktypes.Handler) *Handlers {
	return &Handlers{
		Handler: deps,
		parser:  NewTimeParser(),
	}
}
