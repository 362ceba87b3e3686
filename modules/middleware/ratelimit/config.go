package ratelimit

import (
	"time"
)

type KeyStrategyId string

const (
	RemoteIpKeyStrategy KeyStrategyId = "remote_ip"
	// RouteIpKeyStrategy keys by remote IP and matched route, so one default
	// policy yields an independent budget per endpoint.
	RouteIpKeyStrategy KeyStrategyId = "route_ip"
)

type (
	// RestHTTPConfig is read from RATE_LIMIT_*, e.g.
	//
	//	RATE_LIMIT_ROUTE_0_PATTERN="POST /v1/judgements"
	//	RATE_LIMIT_ROUTE_0_POLICY_0_LIMIT=120
	//	RATE_LIMIT_DEFAULT_WINDOW=1m
	RestHTTPConfig struct {
		Routes              []Route      `envPrefix:"ROUTE_"`
		DefaultPolicy       EndpointRule `envPrefix:"DEFAULT_"`
		AllowIfNoMatch      bool         `env:"ALLOW_IF_NO_MATCH"`
		AllowIfNoIdentifier bool         `env:"ALLOW_IF_NO_ID"`
	}

	Route struct {
		// Pattern is a ServeMux pattern including the method, e.g. "POST /v1/judgements".
		Pattern       string         `env:"PATTERN"`
		EndpointRules []EndpointRule `envPrefix:"POLICY_"`
	}

	EndpointRule struct {
		// Method narrows the rule; empty applies it to every method.
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"10000"`
		Window      time.Duration `env:"WINDOW" envDefault:"1m"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY" envDefault:"remote_ip"`
	}
)
