// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"btharness/harness/core"
)

type synchPointModel struct {
	TestCase string `json:"testCase"`
	WaitID   int    `json:"waitId"`
	DelayMs  int64  `json:"delayMs"`
}

type registerAPIRequest struct {
	Scenario []synchPointModel `json:"scenario"`
}

type synchRegisterHandler struct {
	api HarnessAPI
}

func (h *synchRegisterHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	register := registerAPIRequest{}
	if lerr := readBodyAndUnmarshalJSON(request, &register); lerr != nil {
		lerr.Send(writer, request)
		return
	}

	defs := make([]core.PointDef, 0, len(register.Scenario))
	for _, p := range register.Scenario {
		defs = append(defs, core.PointDef{
			TestCase: p.TestCase,
			WaitID:   p.WaitID,
			Delay:    time.Duration(p.DelayMs) * time.Millisecond,
		})
	}

	elem, err := h.api.Synch().RegisterScenario(defs)
	if err != nil {
		newErrorReply(ClientInvalidRequest, err.Error()).Send(writer, request)
		return
	}

	render.JSON(writer, request, elem.Describe())
}

// NewSynchRegisterHandler returns a new instance of http handler
// for serving /synch/register.
func NewSynchRegisterHandler(api HarnessAPI) http.Handler {
	return &synchRegisterHandler{api: api}
}
