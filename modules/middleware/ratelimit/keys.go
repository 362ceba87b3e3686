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

package ratelimit

import (
	"net"
	"net/http"
	"strings"

	rl "neworder/modules/ratelimit"
)

// RemoteIpKeyFunc keys requests by the closest proxy hop in X-Forwarded-For,
// falling back to the peer host.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return rl.Key(strings.TrimSpace(ips[len(ips)-1]))
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return rl.Key(r.RemoteAddr)
	}
	return rl.Key(host)
}

// RouteIpKeyFunc prefixes the remote IP key with the route resolved by routeFn.
func RouteIpKeyFunc(routeFn RouteInfoFunc) KeyFunc {
	return func(r *http.Request) rl.Key {
		ip := RemoteIpKeyFunc(r)
		if ip == "" {
			return ""
		}
		return rl.Key(string(routeFn(r).ID) + "|" + string(ip))
	}
}

// MuxRouteInfo resolves the registered ServeMux pattern of a request, so
// rate limit routes are configured with the same patterns the mux uses,
// e.g. "POST /v1/judgements".
func MuxRouteInfo(mux *http.ServeMux) RouteInfoFunc {
	return func(r *http.Request) RouteInfo {
		_, pattern := mux.Handler(r)
		return RouteInfo{
			ID:     Pattern(pattern),
			Method: r.Method,
			Path:   r.URL.Path,
		}
	}
}
