// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

type resetHandler struct {
	api HarnessAPI
}

func (h *resetHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if err := h.api.Reset(); err != nil {
		newFailureReply(err.Error()).Send(writer, request)
		return
	}

	if _, err := writer.Write(h.api.InternalState().AsJSON()); err != nil {
		log.WithError(err).Warn("Failed to write reset response")
	}
}

// NewResetHandler returns a new instance of http handler
// for serving /reset.
func NewResetHandler(api HarnessAPI) http.Handler {
	return &resetHandler{api: api}
}
