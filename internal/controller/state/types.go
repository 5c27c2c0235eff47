package state

import "time"

// UserState представляет текущий шаг диалога пользователя
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Ожидаем желаемое время для подбора слотов
	StateSuggestTime UserState = "suggest_time"
)

// Ключи временных данных диалога
const (
	KeyResourceID   = "resource_id"
	KeyResourceName = "resource_name"
)

// DialogTTL - сколько хранится брошенный диалог
const DialogTTL = 30 * time.Minute

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State     UserState
	Data      map[string]any
	UpdatedAt time.Time
}
