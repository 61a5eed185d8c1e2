// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package appctx

import (
	"context"
	"net/http"
	"strings"

	"btharness/harness/fatalerror"

	log "github.com/sirupsen/logrus"
)

// This package contains a set of utility methods for accessing application
// context and application context data.

// A ReqCtxKey type is used as a key for storing values in the request context.
type ReqCtxKey int

// ReqCtxApplicationContextKey is used for injecting application
// context object into request context.
const ReqCtxApplicationContextKey ReqCtxKey = iota

// FromRequest retrieves application context from the request context.
func FromRequest(request *http.Request) ApplicationContext {
	return request.Context().Value(ReqCtxApplicationContextKey).(ApplicationContext)
}

// RequestWithAppCtx places application context into request context.
func RequestWithAppCtx(request *http.Request, appCtx ApplicationContext) *http.Request {
	return request.WithContext(context.WithValue(request.Context(), ReqCtxApplicationContextKey, appCtx))
}

// StoreSessionID stores the id of the current harness session.
func StoreSessionID(appCtx ApplicationContext, sessionID string) {
	appCtx.Store(AppCtxSessionIDKey, sessionID)
}

// GetSessionID returns the id of the current harness session.
func GetSessionID(appCtx ApplicationContext) string {
	return appCtx.GetOrDefault(AppCtxSessionIDKey, "").(string)
}

// GetClientRelease returns client release str extracted from app context.
func GetClientRelease(appCtx ApplicationContext) string {
	return appCtx.GetOrDefault(AppCtxClientReleaseKey, "").(string)
}

// UpdateAppCtxWithClientRelease extracts client release info from user agent header and put it into appCtx.
// Sample UA:
// btpclient/1.4 (linux; x86_64)
func UpdateAppCtxWithClientRelease(request *http.Request, appCtx ApplicationContext) bool {
	// If appCtx has client release value already, skip updating for consistency.
	if len(GetClientRelease(appCtx)) > 0 {
		return false
	}

	userAgent := request.Header.Get("User-Agent")
	if len(userAgent) == 0 {
		return false
	}

	// Split around spaces and use only the first token.
	if fields := strings.Fields(userAgent); len(fields) > 0 && len(fields[0]) > 0 {
		appCtx.Store(AppCtxClientReleaseKey,
			fields[0])
		return true
	}
	return false
}

// StoreFirstFatalError stores unrecoverable error code in appctx once. This error is considered to be the rootcause of failure
func StoreFirstFatalError(appCtx ApplicationContext, err fatalerror.ErrorType) {
	if existing := appCtx.StoreIfNotExists(AppCtxFirstFatalErrorKey, err); existing != nil {
		log.Warnf("Omitting fatal error %s: %s already stored", err, existing.(fatalerror.ErrorType))
		return
	}

	log.Warnf("First fatal error stored in appctx: %s", err)
}

// LoadFirstFatalError returns stored error if found
func LoadFirstFatalError(appCtx ApplicationContext) (errorType fatalerror.ErrorType, found bool) {
	v, found := appCtx.Load(AppCtxFirstFatalErrorKey)
	if !found {
		return "", false
	}
	return v.(fatalerror.ErrorType), true
}
