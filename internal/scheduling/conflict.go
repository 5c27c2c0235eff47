package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// CapacityUsed возвращает пиковое число бронирований, занимающих место
// одновременно внутри iv. Бронирование с id exclude не учитывается.
func CapacityUsed(bookings []*model.BookingRequest, iv model.Interval, exclude uuid.UUID) int {
	type edge struct {
		at    time.Time
		delta int
	}
	var edges []edge
	for _, b := range bookings {
		if b.ID == exclude || !b.Status.HoldsCapacity() || !b.Interval.Overlaps(iv) {
			continue
		}
		start, end := b.Interval.Start, b.Interval.End
		if start.Before(iv.Start) {
			start = iv.Start
		}
		if end.After(iv.End) {
			end = iv.End
		}
		edges = append(edges, edge{start, 1}, edge{end, -1})
	}
	// Интервалы полуоткрытые: в один момент конец обрабатывается раньше начала
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].at.Equal(edges[j].at) {
			return edges[i].at.Before(edges[j].at)
		}
		return edges[i].delta < edges[j].delta
	})

	peak, cur := 0, 0
	for _, e := range edges {
		cur += e.delta
		if cur > peak {
			peak = cur
		}
	}
	return peak
}

// HasConflict - ещё одно бронирование на iv превысит вместимость
func HasConflict(capacity int, bookings []*model.BookingRequest, iv model.Interval, exclude uuid.UUID) bool {
	return CapacityUsed(bookings, iv, exclude)+1 > capacity
}
