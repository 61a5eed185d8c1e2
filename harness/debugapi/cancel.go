// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"net/http"

	"github.com/pkg/errors"
)

type cancelAPIRequest struct {
	Reason string `json:"reason"`
}

type cancelHandler struct {
	api HarnessAPI
}

func (h *cancelHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	cancel := cancelAPIRequest{}
	if lerr := readBodyAndUnmarshalJSON(request, &cancel); lerr != nil {
		lerr.Send(writer, request)
		return
	}

	if cancel.Reason == "" {
		cancel.Reason = "canceled via debug api"
	}

	h.api.CancelRun(errors.New(cancel.Reason))

	newSuccessReply().Send(writer, request)
}

// NewCancelHandler returns a new instance of http handler
// for serving /synch/cancel.
func NewCancelHandler(api HarnessAPI) http.Handler {
	return &cancelHandler{api: api}
}
