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

// Package ratelimit applies per-route rate limit policies to net/http handlers.
package ratelimit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	rl "neworder/modules/ratelimit"
)

var ErrInvalidPolicy = errors.New("ratelimit: invalid policy")

type (
	Pattern string
	method  string

	// KeyFunc identifies the caller of a request; an empty key means unknown.
	KeyFunc func(*http.Request) rl.Key

	RouteInfoFunc func(*http.Request) RouteInfo

	RouteInfo struct {
		ID     Pattern
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
	}

	// RuntimePolicy is the compiled form of RestHTTPConfig.
	RuntimePolicy struct {
		policyMap map[Pattern]map[method]Policy

		// method defaults win over the catch-all default
		defaultPolicyByMethod map[method]Policy
		defaultPolicy         *Policy

		AllowIfNoMatch      bool
		AllowIfNoIdentifier bool

		RouteInfoFn RouteInfoFunc
	}
)

type policySource string

const (
	policySourceExplicit      policySource = "explicit"
	policySourceDefaultMethod policySource = "default_method"
	policySourceDefaultAll    policySource = "default"
)

// anyMethod stores rules without a method.
const anyMethod method = ""

func normalizeMethod(m string) method {
	return method(strings.ToUpper(strings.TrimSpace(m)))
}

func (p *RuntimePolicy) findPolicy(ri RouteInfo) (Policy, bool, policySource) {
	m := normalizeMethod(ri.Method)

	if pm, ok := p.policyMap[ri.ID]; ok {
		if px, ok := pm[m]; ok {
			return px, true, policySourceExplicit
		}
		if px, ok := pm[anyMethod]; ok {
			return px, true, policySourceExplicit
		}
	}

	if px, ok := p.defaultPolicyByMethod[m]; ok && m != anyMethod {
		return px, true, policySourceDefaultMethod
	}

	if p.defaultPolicy != nil {
		return *p.defaultPolicy, true, policySourceDefaultAll
	}

	return Policy{}, false, ""
}

// ParsePolicy compiles cfg. Route patterns must be the patterns registered on
// the mux that routeFn consults.
func ParsePolicy(
	factory rl.LimiterFactory,
	cfg *RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	if routeFn == nil {
		return nil, fmt.Errorf("%w: route info func is required", ErrInvalidPolicy)
	}

	rtp := &RuntimePolicy{
		policyMap:             make(map[Pattern]map[method]Policy),
		defaultPolicyByMethod: make(map[method]Policy),
		AllowIfNoIdentifier:   cfg.AllowIfNoIdentifier,
		AllowIfNoMatch:        cfg.AllowIfNoMatch,
		RouteInfoFn:           routeFn,
	}

	compile := func(rule EndpointRule) (Policy, error) {
		if rule.Limit <= 0 || rule.Window <= 0 {
			return Policy{}, fmt.Errorf("%w: limit %d window %s", ErrInvalidPolicy, rule.Limit, rule.Window)
		}
		ks, ok := keyStrategies[rule.KeyStrategy]
		if !ok {
			return Policy{}, fmt.Errorf("%w: no key strategy %q", ErrInvalidPolicy, rule.KeyStrategy)
		}
		return Policy{Limiter: factory(rule.Limit, rule.Window), KeyFn: ks}, nil
	}

	// the default counts as configured once it has a window and a key strategy
	if d := cfg.DefaultPolicy; d.Window > 0 && d.KeyStrategy != "" {
		p, err := compile(d)
		if err != nil {
			return nil, fmt.Errorf("default policy: %w", err)
		}
		if m := normalizeMethod(d.Method); m != anyMethod {
			rtp.defaultPolicyByMethod[m] = p
		} else {
			rtp.defaultPolicy = &p
		}
	}

	for _, r := range cfg.Routes {
		pat := Pattern(strings.TrimSpace(r.Pattern))
		if pat == "" {
			return nil, fmt.Errorf("%w: empty route pattern", ErrInvalidPolicy)
		}
		if _, ok := rtp.policyMap[pat]; !ok {
			rtp.policyMap[pat] = make(map[method]Policy)
		}

		for _, rule := range r.EndpointRules {
			m := normalizeMethod(rule.Method)
			if _, ok := rtp.policyMap[pat][m]; ok {
				return nil, fmt.Errorf("%w: duplicate method %q on %q", ErrInvalidPolicy, m, pat)
			}
			p, err := compile(rule)
			if err != nil {
				return nil, fmt.Errorf("route %q: %w", pat, err)
			}
			rtp.policyMap[pat][m] = p
		}
	}
	return rtp, nil
}
