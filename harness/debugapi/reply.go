// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package debugapi

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorType classifies client-visible request errors.
type ErrorType int

const (
	ClientInvalidRequest ErrorType = iota
	ClientUnknownCategory
)

func (t ErrorType) String() string {
	switch t {
	case ClientInvalidRequest:
		return "Client.InvalidRequest"
	case ClientUnknownCategory:
		return "Client.UnknownCategory"
	}
	return fmt.Sprintf("Cannot stringify debugapi.ErrorType.%d", int(t))
}

func (t ErrorType) httpStatus() int {
	switch t {
	case ClientUnknownCategory:
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// Reply is a renderable debug API response.
type Reply interface {
	Send(http.ResponseWriter, *http.Request)
}

// SuccessReply acknowledges an accepted control request.
type SuccessReply struct {
	Status string `json:"status"`
}

func newSuccessReply() *SuccessReply {
	return &SuccessReply{Status: "success"}
}

func (s *SuccessReply) Send(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s)
}

// FailureReply reports an operation refused in the current run state.
type FailureReply struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func newFailureReply(reason string) *FailureReply {
	return &FailureReply{Status: "failed", Reason: reason}
}

func (f *FailureReply) Send(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, f)
}

// ErrorReply reports a malformed or unroutable request.
type ErrorReply struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`

	status int
}

func newErrorReply(errType ErrorType, errMsg string) *ErrorReply {
	return &ErrorReply{
		ErrorType:    errType.String(),
		ErrorMessage: errMsg,
		status:       errType.httpStatus(),
	}
}

func (e *ErrorReply) Send(w http.ResponseWriter, r *http.Request) {
	render.Status(r, e.status)
	render.JSON(w, r, e)
}

func readBodyAndUnmarshalJSON(r *http.Request, dst interface{}) *ErrorReply {
	bodyBytes, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return newErrorReply(ClientInvalidRequest, fmt.Sprintf("Failed to read full body: %s", err))
	}

	if err = json.Unmarshal(bodyBytes, dst); err != nil {
		return newErrorReply(ClientInvalidRequest, fmt.Sprintf("Invalid json %s: %s", string(bodyBytes), err))
	}

	return nil
}
