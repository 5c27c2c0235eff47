package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
)

const (
	// ActorAdmission подписывает переходы, сделанные конвейером допуска
	ActorAdmission = "system:admission"
	// ActorSyncPrefix - префикс автора переходов от внешней системы
	ActorSyncPrefix = "sync:"

	DefaultSubmitGrace = 5 * time.Minute
	maxReportDays      = 366
)

// StatusTables хранит словарь статусов каждой внешней системы
type StatusTables map[string]*model.StatusTable

// For возвращает таблицу системы, иначе таблицу workflow по умолчанию
func (t StatusTables) For(system string) *model.StatusTable {
	if table, ok := t[system]; ok && table != nil {
		return table
	}
	return model.DefaultStatusTable()
}

// loadSnapshot читает всё, что нужно допуску по ресурсу в пределах window
func loadSnapshot(ctx context.Context, r repository.Repos, res *model.Resource, window model.Interval, now time.Time) (*scheduling.Snapshot, error) {
	rules, err := r.Rules.ListByResource(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	bookings, err := r.Bookings.ListActiveOverlapping(ctx, res.ID, window)
	if err != nil {
		return nil, err
	}
	return scheduling.NewSnapshot(res, rules, bookings, now)
}

func getResource(ctx context.Context, r repository.Repos, id uuid.UUID) (*model.Resource, error) {
	res, err := r.Resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, model.NewNotFoundError("resource", id.String())
	}
	return res, nil
}

func getBooking(ctx context.Context, r repository.Repos, id uuid.UUID) (*model.BookingRequest, error) {
	b, err := r.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, model.NewNotFoundError("booking", id.String())
	}
	return b, nil
}

// dateRange разбирает включительные границы YYYY-MM-DD в зоне loc
func dateRange(startDate, endDate string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01-02", startDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, model.NewValidationError("start_date", "must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation("2006-01-02", endDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, model.NewValidationError("end_date", "must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, model.NewValidationError("end_date", "must not be before start_date")
	}
	if to.Sub(from) > maxReportDays*24*time.Hour {
		return time.Time{}, time.Time{}, model.NewValidationError("end_date", "range is limited to %d days", maxReportDays)
	}
	return from, to.AddDate(0, 0, 1), nil
}
