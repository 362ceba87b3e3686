// Copyright 2025 Nguyen Nhat Nguyen
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

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"

	"neworder/modules/middleware/problem"
)

const genericReason = "invalid value"

// invalidParams flattens a validation error into one entry per violation.
func invalidParams(err error) []problem.InvalidParam {
	return collectParams(err, "", nil)
}

func collectParams(err error, param string, out []problem.InvalidParam) []problem.InvalidParam {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, item := range e {
			out = collectParams(item, param, out)
		}
		return out
	case *openapi3filter.RequestError:
		if e.Parameter != nil {
			param = e.Parameter.Name
		}
		switch e.Err.(type) {
		case openapi3.MultiError, *openapi3.SchemaError:
			return collectParams(e.Err, param, out)
		}
		if param == "" {
			param = "body"
		}
		return append(out, problem.InvalidParam{Name: param, Reason: safeReason(e.Reason)})
	case *openapi3.SchemaError:
		if param == "" {
			param = fieldOf(e.JSONPointer())
		}
		return append(out, problem.InvalidParam{Name: param, Reason: e.Reason})
	case *openapi3filter.SecurityRequirementsError:
		return append(out, problem.InvalidParam{Name: "authorization", Reason: "missing or invalid credentials"})
	default:
		return append(out, problem.InvalidParam{Name: "request", Reason: genericReason})
	}
}

// fieldOf names the top-level body field a schema pointer lands in.
func fieldOf(pointer []string) string {
	if len(pointer) == 0 || pointer[0] == "" || pointer[0] == "0" {
		return "body"
	}
	return pointer[0]
}

// validationStatus keeps 400 for malformed requests and uses 422 once a
// well-formed body breaks its schema.
func validationStatus(err error, status int) int {
	if status == 0 {
		status = http.StatusBadRequest
	}
	if bodyViolation(err) {
		return http.StatusUnprocessableEntity
	}
	return status
}

func bodyViolation(err error) bool {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, item := range e {
			if bodyViolation(item) {
				return true
			}
		}
	case *openapi3filter.RequestError:
		var parseErr *openapi3filter.ParseError
		return e.RequestBody != nil && !errors.As(e.Err, &parseErr)
	case *openapi3.SchemaError:
		return true
	}
	return false
}

// safeReason drops reasons that may echo request input back to the client.
func safeReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "must be one of"):
		return reason
	case strings.Contains(lower, "doesn't match schema"):
		return "doesn't match schema"
	default:
		return genericReason
	}
}
