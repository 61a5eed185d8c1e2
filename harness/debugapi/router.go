// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"net/http"

	"github.com/go-chi/chi"

	"btharness/harness/appctx"
	"btharness/harness/core"
	"btharness/harness/core/statejson"
	"btharness/harness/stack"
)

// HarnessAPI is the surface the debug API needs from the harness.
type HarnessAPI interface {
	InternalState() *statejson.InternalStateDescription
	Reset() error
	CancelRun(reason error)
	Synch() *core.Synch
	Stack() *stack.Stack
	AppCtx() appctx.ApplicationContext
}

// NewRouter returns a new instance of chi router implementing
// the debug/control API specification.
func NewRouter(api HarnessAPI) http.Handler {
	router := chi.NewRouter()
	router.Use(AppCtxMiddleware(api.AppCtx()))
	router.Use(AccessLogMiddleware())
	router.Use(ClientReleaseMiddleware())

	router.Get("/state", NewStateHandler(api).ServeHTTP)

	router.Post("/event/{category}", NewEventHandler(api).ServeHTTP)
	router.Post("/synch/register", NewSynchRegisterHandler(api).ServeHTTP)
	router.Post("/synch/cancel", NewCancelHandler(api).ServeHTTP)
	router.Post("/reset", NewResetHandler(api).ServeHTTP)

	return router
}
