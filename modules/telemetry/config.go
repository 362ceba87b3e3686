// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import "time"

// Mode decides who owns the TracerProvider.
type Mode string

const (
	// ModeDetect picks ModeAuto when a Go auto-instrumentation agent is attached.
	ModeDetect Mode = "detect"
	// ModeManual installs the SDK tracer and meter providers with OTLP exporters.
	ModeManual Mode = "manual"
	// ModeAuto leaves traces to the agent and only installs the meter provider.
	ModeAuto Mode = "auto"
)

type Config struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"neworder"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"local"`

	// host:port or a full URL. Empty defers to the OTEL_EXPORTER_OTLP_* variables.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:"otel-collector:4317"`
	Insecure     bool   `env:"OTEL_EXPORTER_OTLP_TRACES_INSECURE"`

	// 0 never samples, 1 always samples, anything between is parent based.
	SamplerRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1"`

	StartupTimeout time.Duration `env:"OTEL_STARTUP_TIMEOUT" envDefault:"5s"`
	Mode           Mode          `env:"OTEL_MODE" envDefault:"detect"`
	DisableMetrics bool          `env:"OTEL_METRICS_DISABLED"`

	ResourceAttrs map[string]string `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"deployment.environment=local,service.version=dev" envSeparator:"," envKeyValSeparator:"="`
}
