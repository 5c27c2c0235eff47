package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
)

// ReportService отвечает на запросы расписания и доступности, только чтение
type ReportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) *ReportService {
	return &ReportService{store: store}
}

// DayAvailability - сводка по одному календарному дню ресурса
type DayAvailability struct {
	Date               string  `json:"date"`
	IsAvailable        bool    `json:"is_available"`
	BookingCount       int     `json:"booking_count"`
	BookedHours        float64 `json:"booked_hours"`
	CapacityHours      float64 `json:"capacity_hours"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// UtilizationStats - сводка по подтверждённым, идущим и завершённым бронированиям за период
type UtilizationStats struct {
	ResourceID         uuid.UUID                   `json:"resource_id"`
	StartDate          string                      `json:"start_date"`
	EndDate            string                      `json:"end_date"`
	TotalBookings      int                         `json:"total_bookings"`
	BookedHours        float64                     `json:"booked_hours"`
	CapacityHours      float64                     `json:"capacity_hours"`
	UtilizationPercent float64                     `json:"utilization_percent"`
	ByStatus           map[model.BookingStatus]int `json:"by_status"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(part / whole * 100)
}

// overlapHours - длина пересечения a и b в часах
func overlapHours(a, b model.Interval) float64 {
	if !a.Overlaps(b) {
		return 0
	}
	start, end := a.Start, a.End
	if b.Start.After(start) {
		start = b.Start
	}
	if b.End.Before(end) {
		end = b.End
	}
	return end.Sub(start).Hours()
}

func (s *ReportService) resourceSchedule(ctx context.Context, id uuid.UUID) (*model.Resource, *scheduling.WeeklySchedule, error) {
	res, err := getResource(ctx, s.store.Repos(), id)
	if err != nil {
		return nil, nil, err
	}
	ws, err := scheduling.ParseAvailability(res.Availability)
	if err != nil {
		return nil, nil, err
	}
	return res, ws, nil
}

// Availability даёт отчёт по каждому дню [startDate, endDate], даты в
// часовом поясе ресурса.
func (s *ReportService) Availability(ctx context.Context, resourceID uuid.UUID, startDate, endDate string) ([]DayAvailability, error) {
	res, ws, err := s.resourceSchedule(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	from, to, err := dateRange(startDate, endDate, ws.Location)
	if err != nil {
		return nil, err
	}

	bookings, err := s.store.Repos().Bookings.ListActiveOverlapping(ctx, resourceID, model.Interval{Start: from, End: to})
	if err != nil {
		return nil, err
	}

	var days []DayAvailability
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		dayIv := model.Interval{Start: day, End: day.AddDate(0, 0, 1)}
		open := ws.OpenHours(day)
		report := DayAvailability{
			Date:          day.Format("2006-01-02"),
			IsAvailable:   open > 0,
			CapacityHours: open * float64(res.Capacity),
		}
		for _, b := range bookings {
			if h := overlapHours(b.Interval, dayIv); h > 0 {
				report.BookingCount++
				report.BookedHours += h
			}
		}
		report.BookedHours = round1(report.BookedHours)
		report.UtilizationPercent = percent(report.BookedHours, report.CapacityHours)
		days = append(days, report)
	}
	return days, nil
}

// Schedule перечисляет занимающие место бронирования, пересекающие [from, to), по началу
func (s *ReportService) Schedule(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*model.BookingRequest, error) {
	iv, err := model.NewInterval(from, to)
	if err != nil {
		return nil, err
	}
	r := s.store.Repos()
	if _, err := getResource(ctx, r, resourceID); err != nil {
		return nil, err
	}
	bookings, err := r.Bookings.ListActiveOverlapping(ctx, resourceID, iv)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*model.BookingRequest{}
	}
	return bookings, nil
}

// Utilization подводит итоги ресурса за [startDate, endDate]
func (s *ReportService) Utilization(ctx context.Context, resourceID uuid.UUID, startDate, endDate string) (*UtilizationStats, error) {
	res, ws, err := s.resourceSchedule(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	from, to, err := dateRange(startDate, endDate, ws.Location)
	if err != nil {
		return nil, err
	}

	bookings, err := s.store.Repos().Bookings.List(ctx, model.BookingFilter{
		ResourceID: &resourceID,
		Statuses:   []model.BookingStatus{model.BookingStatusConfirmed, model.BookingStatusInProgress, model.BookingStatusCompleted},
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return nil, err
	}

	stats := &UtilizationStats{
		ResourceID: resourceID,
		StartDate:  startDate,
		EndDate:    endDate,
		ByStatus:   make(map[model.BookingStatus]int),
	}
	window := model.Interval{Start: from, End: to}
	for _, b := range bookings {
		stats.TotalBookings++
		stats.ByStatus[b.Status]++
		stats.BookedHours += overlapHours(b.Interval, window)
	}
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		stats.CapacityHours += ws.OpenHours(day) * float64(res.Capacity)
	}
	stats.BookedHours = round1(stats.BookedHours)
	stats.CapacityHours = round1(stats.CapacityHours)
	stats.UtilizationPercent = percent(stats.BookedHours, stats.CapacityHours)
	return stats, nil
}
