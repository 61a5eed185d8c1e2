// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
)

type eventHandler struct {
	api HarnessAPI
}

func (h *eventHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	var record json.RawMessage
	if lerr := readBodyAndUnmarshalJSON(request, &record); lerr != nil {
		lerr.Send(writer, request)
		return
	}

	coreFacade := h.api.Stack().Core()
	if coreFacade == nil {
		http.Error(writer, "core facade not initialized", http.StatusInternalServerError)
		return
	}

	category := chi.URLParam(request, "category")
	if ok := coreFacade.Append(category, record); !ok {
		newErrorReply(ClientUnknownCategory,
			fmt.Sprintf("no event queue registered for category '%s'", category)).Send(writer, request)
		return
	}

	newSuccessReply().Send(writer, request)
}

// NewEventHandler returns a new instance of http handler
// for serving /event/{category}.
func NewEventHandler(api HarnessAPI) http.Handler {
	return &eventHandler{api: api}
}
