// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"net/http"

	"github.com/go-chi/chi/middleware"

	"btharness/harness/appctx"

	log "github.com/sirupsen/logrus"
)

// AppCtxMiddleware injects application context into request context.
func AppCtxMiddleware(appCtx appctx.ApplicationContext) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			r = appctx.RequestWithAppCtx(r, appCtx)
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// AccessLogMiddleware writes api access log.
func AccessLogMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			log.Debugf("debugapi: -> %s %s %v", r.Method, r.URL, r.Header)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := 200
			if ww.Status() != 0 {
				status = ww.Status()
			}

			if status/100 != 2 {
				log.Errorf("debugapi: <- %s %d %v", r.URL, status, w.Header())
			} else {
				log.Debugf("debugapi: <- %s %d %v", r.URL, status, w.Header())
			}
		}
		return http.HandlerFunc(fn)
	}
}

// ClientReleaseMiddleware places the client release into app context.
func ClientReleaseMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			appCtx := appctx.FromRequest(r)
			appctx.UpdateAppCtxWithClientRelease(r, appCtx)
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
