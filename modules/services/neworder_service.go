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

package services

import (
	"io/fs"
	"net/http"

	"neworder/core/neworder/adapters/rest"
	"neworder/modules/middleware"
	"neworder/modules/server"
)

var _ server.RegistrableService = (*NewOrderAPIService)(nil)

// NewOrderAPIService encapsulates the registration logic for the New Order API.
type NewOrderAPIService struct {
	specPath string
	specFS   fs.FS
	api      *rest.NewOrderAPI
}

func NewNewOrderAPIService(api *rest.NewOrderAPI, specFS fs.FS, specPath string) *NewOrderAPIService {
	return &NewOrderAPIService{specFS: specFS, specPath: specPath, api: api}
}

// Register mounts the New Order API routes.
func (s *NewOrderAPIService) Register(mux *http.ServeMux) {
	s.api.Routes(mux)
}

// Middlewares returns global middlewares required by the New Order API, such as validation.
func (s *NewOrderAPIService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.OpenAPIValidation(
			s.specFS,
			s.specPath,
			middleware.ProblemValidationErrorHandler,
			middleware.ProblemSpecLoadErrorHandler,
		),
	}
}
