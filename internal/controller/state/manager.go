package state

import (
	"sync"
	"time"
)

// Manager управляет состояниями диалогов, ключ - telegram ID
type Manager struct {
	mu     sync.Mutex
	states map[int64]*UserData
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
		ttl:    DialogTTL,
		now:    time.Now,
	}
}

// entry возвращает живой диалог пользователя и удаляет истёкший.
// Вызывается под mu.
func (sm *Manager) entry(telegramID int64) (*UserData, bool) {
	data, ok := sm.states[telegramID]
	if !ok {
		return nil, false
	}
	if sm.now().Sub(data.UpdatedAt) > sm.ttl {
		delete(sm.states, telegramID)
		return nil, false
	}
	return data, true
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if data, ok := sm.entry(telegramID); ok {
		return data.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	data, ok := sm.entry(telegramID)
	if !ok {
		data = &UserData{Data: make(map[string]any)}
		sm.states[telegramID] = data
	}
	data.State = state
	data.UpdatedAt = sm.now()
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(telegramID int64, key string) (any, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if data, ok := sm.entry(telegramID); ok {
		value, found := data.Data[key]
		return value, found
	}
	return nil, false
}

// GetString - GetData для строковых значений
func (sm *Manager) GetString(telegramID int64, key string) (string, bool) {
	v, ok := sm.GetData(telegramID, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SetData устанавливает временные данные пользователя
func (sm *Manager) SetData(telegramID int64, key string, value any) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, ok := sm.entry(telegramID)
	if !ok {
		data = &UserData{State: StateNone, Data: make(map[string]any)}
		sm.states[telegramID] = data
	}
	data.Data[key] = value
	data.UpdatedAt = sm.now()
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}
