package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/mindmate-labs/go-mindmate-backend/internal/config"
)

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prevTP)

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown must not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatal("disabled setup must not replace the global tracer provider")
	}
}

func TestSetupOTel_ExporterErrorPropagates(t *testing.T) {
	prevFn := newOTLPExporterFn
	defer func() { newOTLPExporterFn = prevFn }()

	boom := errors.New("dial failed")
	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, boom
	}

	_, err := SetupOTel(context.Background(), config.OTELConfig{
		Enabled:  true,
		Endpoint: "localhost:4317",
		Insecure: true,
	}, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want exporter error", err)
	}
}

func TestSetupOTel_ResourceErrorPropagates(t *testing.T) {
	prevExp := newOTLPExporterFn
	prevRes := newServiceResourceFn
	defer func() {
		newOTLPExporterFn = prevExp
		newServiceResourceFn = prevRes
	}()

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return &otlptrace.Exporter{}, nil
	}
	boom := errors.New("bad resource")
	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return nil, boom
	}

	_, err := SetupOTel(context.Background(), config.OTELConfig{
		Enabled:  true,
		Endpoint: "localhost:4317",
		Insecure: true,
	}, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want resource error", err)
	}
}
