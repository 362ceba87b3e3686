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
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"

	"neworder/modules/middleware/problem"
)

// ValidationErrorHandler writes the response for a request that failed
// OpenAPI validation. status is already mapped to 400 or 422.
type ValidationErrorHandler func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, status int)

// SpecLoadErrorHandler writes the response when the OpenAPI document could not be loaded.
type SpecLoadErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type specKey struct {
	fsys fs.FS
	path string
}

// specs memoizes one parse per document; failures are memoized too.
var specs sync.Map // specKey -> func() (*openapi3.T, error)

func loadSpec(fsys fs.FS, path string) (*openapi3.T, error) {
	load, _ := specs.LoadOrStore(specKey{fsys: fsys, path: path}, sync.OnceValues(func() (*openapi3.T, error) {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, err
		}
		loader := openapi3.NewLoader()
		loader.IsExternalRefsAllowed = true
		return loader.LoadFromData(data)
	}))
	return load.(func() (*openapi3.T, error))()
}

// OpenAPIValidation validates requests against the document at path in fsys.
// If the document cannot be loaded every request goes to onLoadErr.
func OpenAPIValidation(fsys fs.FS, path string, onInvalid ValidationErrorHandler, onLoadErr SpecLoadErrorHandler) func(http.Handler) http.Handler {
	doc, err := loadSpec(fsys, path)
	if err != nil {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				onLoadErr(w, r, err)
			})
		}
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(doc, &nethttpmiddleware.Options{
		Options:               openapi3filter.Options{MultiError: true},
		DoNotValidateServers:  true,
		SilenceServersWarning: true,
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, o nethttpmiddleware.ErrorHandlerOpts) {
			onInvalid(ctx, err, w, r, validationStatus(err, o.StatusCode))
		},
	})
}

// ProblemValidationErrorHandler writes one invalid param per violation.
func ProblemValidationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, _ *http.Request, status int) {
	p := problem.New(status, "validation failed", problem.Traced(ctx))
	p.InvalidParams = invalidParams(err)
	problem.Write(w, p)
}

func ProblemSpecLoadErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "openapi document not loaded", slog.Any("error", err))
	problem.Write(w, problem.Internal("server error", problem.Traced(r.Context())))
}
