package callbacks

import (
	"errors"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// Ошибки обработки callback
var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	case errors.Is(err, model.ErrBlackout):
		return "❌ Время попадает в закрытый период"
	case errors.Is(err, model.ErrOutsideAvailability):
		return "❌ Время вне рабочих часов ресурса"
	case errors.Is(err, model.ErrCapacityExceeded), errors.Is(err, model.ErrConflict):
		return "❌ На это время нет свободных мест"
	case errors.Is(err, model.ErrInvalidTransition):
		return "❌ Бронирование уже обработано"
	case errors.Is(err, model.ErrNotFound):
		return "❌ Не найдено"
	case errors.Is(err, model.ErrValidation):
		return "❌ Неверные данные"
	default:
		return "❌ Произошла ошибка"
	}
}
