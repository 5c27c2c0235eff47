package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const schedulingScopeName = "github.com/Liam-Lillieroth/MetaTask/scheduling"

// Scheduling хранит инструменты бронирований. Нулевое значение непригодно,
// используйте NewScheduling. Инструменты берутся из глобального провайдера,
// поэтому ничего не делают, пока Init не включит телеметрию.
type Scheduling struct {
	tracer      trace.Tracer
	admissions  metric.Int64Counter
	transitions metric.Int64Counter
	syncs       metric.Int64Counter
	duration    metric.Float64Histogram
}

func NewScheduling() *Scheduling {
	m := Meter(schedulingScopeName)
	admissions, _ := m.Int64Counter("scheduler.admissions",
		metric.WithDescription("Admission pipeline outcomes by status and reason"),
	)
	transitions, _ := m.Int64Counter("scheduler.transitions",
		metric.WithDescription("Booking status transitions"),
	)
	syncs, _ := m.Int64Counter("scheduler.syncs",
		metric.WithDescription("External sync calls by system and outcome"),
	)
	duration, _ := m.Float64Histogram("scheduler.operation.duration",
		metric.WithDescription("Booking operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &Scheduling{
		tracer:      Tracer(schedulingScopeName),
		admissions:  admissions,
		transitions: transitions,
		syncs:       syncs,
		duration:    duration,
	}
}

// Start открывает span операции с бронированием. Возвращённую функцию
// нужно вызвать с ошибкой операции по её завершении.
func (s *Scheduling) Start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	all := append([]attribute.KeyValue{attribute.String("scheduler.operation", op)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "booking."+op, trace.WithAttributes(all...))
	start := time.Now()
	return ctx, func(err error) {
		s.duration.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("scheduler.operation", op)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Admission считает один исход допуска
func (s *Scheduling) Admission(ctx context.Context, status, reason string) {
	s.admissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("booking.status", status),
		attribute.String("booking.reason", reason),
	))
}

// Transition считает один переход жизненного цикла
func (s *Scheduling) Transition(ctx context.Context, from, to string) {
	s.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("booking.from", from),
		attribute.String("booking.to", to),
	))
}

// Sync считает один вызов внешней синхронизации
func (s *Scheduling) Sync(ctx context.Context, system, outcome string) {
	s.syncs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sync.system", system),
		attribute.String("sync.outcome", outcome),
	))
}
