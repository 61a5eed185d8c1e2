// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

type stateHandler struct {
	api HarnessAPI
}

func (h *stateHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	state := h.api.InternalState()

	if _, err := writer.Write(state.AsJSON()); err != nil {
		log.WithError(err).Warn("Failed to write state response")
	}
}

// NewStateHandler returns a new instance of http handler
// for serving /state.
func NewStateHandler(api HarnessAPI) http.Handler {
	return &stateHandler{api: api}
}
