// Package telemetry подключает трассировку и метрики OpenTelemetry.
//
// Телеметрия выключена, пока в конфиге не задан OTEL_ENABLED. С
// OTEL_STDOUT span и метрики пишутся в stdout.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/Liam-Lillieroth/MetaTask"

// Options выбирает экспортёры
type Options struct {
	Enabled bool
	Stdout  bool
}

var shutdownFns []func(context.Context) error

// Init ставит глобальные провайдеры. В выключенном режиме - no-op провайдеры.
func Init(ctx context.Context, serviceName, version string, opts Options) error {
	if !opts.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if opts.Stdout {
		texp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("telemetry: stdout trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(texp))

		mexp, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("telemetry: stdout metric exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(mexp, sdkmetric.WithInterval(15*time.Second)),
		))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	shutdownFns = append(shutdownFns, tp.Shutdown)

	mp := sdkmetric.NewMeterProvider(mpOpts...)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, mp.Shutdown)

	return nil
}

// Tracer возвращает tracer для name, при пустом name - для модуля
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter возвращает meter для name, при пустом name - для модуля
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown сбрасывает и останавливает провайдеры. Останавливаются все, даже
// если предыдущий упал; ошибки объединяются.
func Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range shutdownFns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	shutdownFns = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown telemetry: %w", err)
	}
	return nil
}
