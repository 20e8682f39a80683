/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package serxutil

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status codes carried in the status field of every response.  A non-success
// status returned by the native stack is passed through unchanged; the
// remaining codes are produced by the serialization layer itself.
const (
	NRF_SUCCESS                   uint32 = 0
	NRF_ERROR_SVC_HANDLER_MISSING uint32 = 1
	NRF_ERROR_SOFTDEVICE_NOT_ENA  uint32 = 2
	NRF_ERROR_INTERNAL            uint32 = 3
	NRF_ERROR_NO_MEM              uint32 = 4
	NRF_ERROR_NOT_FOUND           uint32 = 5
	NRF_ERROR_NOT_SUPPORTED       uint32 = 6
	NRF_ERROR_INVALID_PARAM       uint32 = 7
	NRF_ERROR_INVALID_STATE       uint32 = 8
	NRF_ERROR_INVALID_LENGTH      uint32 = 9
	NRF_ERROR_INVALID_FLAGS       uint32 = 10
	NRF_ERROR_INVALID_DATA        uint32 = 11
	NRF_ERROR_DATA_SIZE           uint32 = 12
	NRF_ERROR_TIMEOUT             uint32 = 13
	NRF_ERROR_NULL                uint32 = 14
	NRF_ERROR_FORBIDDEN           uint32 = 15
	NRF_ERROR_INVALID_ADDR        uint32 = 16
	NRF_ERROR_BUSY                uint32 = 17
)

// BLE stack specific codes.
const (
	BLE_ERROR_NOT_ENABLED          uint32 = 0x3001
	BLE_ERROR_INVALID_CONN_HANDLE  uint32 = 0x3002
	BLE_ERROR_INVALID_ATTR_HANDLE  uint32 = 0x3003
	BLE_ERROR_GAP_INVALID_BLE_ADDR uint32 = 0x3201
	BLE_ERROR_GAP_WHITELIST_IN_USE uint32 = 0x3202
)

var statusStringMap = map[uint32]string{
	NRF_SUCCESS:                   "success",
	NRF_ERROR_SVC_HANDLER_MISSING: "svc handler missing",
	NRF_ERROR_SOFTDEVICE_NOT_ENA:  "stack not enabled",
	NRF_ERROR_INTERNAL:            "internal error",
	NRF_ERROR_NO_MEM:              "no memory",
	NRF_ERROR_NOT_FOUND:           "not found",
	NRF_ERROR_NOT_SUPPORTED:       "not supported",
	NRF_ERROR_INVALID_PARAM:       "invalid parameter",
	NRF_ERROR_INVALID_STATE:       "invalid state",
	NRF_ERROR_INVALID_LENGTH:      "invalid length",
	NRF_ERROR_INVALID_FLAGS:       "invalid flags",
	NRF_ERROR_INVALID_DATA:        "invalid data",
	NRF_ERROR_DATA_SIZE:           "invalid data size",
	NRF_ERROR_TIMEOUT:             "timeout",
	NRF_ERROR_NULL:                "null pointer",
	NRF_ERROR_FORBIDDEN:           "forbidden",
	NRF_ERROR_INVALID_ADDR:        "bad memory address",
	NRF_ERROR_BUSY:                "busy",

	BLE_ERROR_NOT_ENABLED:          "ble not enabled",
	BLE_ERROR_INVALID_CONN_HANDLE:  "invalid connection handle",
	BLE_ERROR_INVALID_ATTR_HANDLE:  "invalid attribute handle",
	BLE_ERROR_GAP_INVALID_BLE_ADDR: "invalid ble address",
	BLE_ERROR_GAP_WHITELIST_IN_USE: "whitelist in use",
}

func StatusToString(status uint32) string {
	s := statusStringMap[status]
	if s == "" {
		return fmt.Sprintf("unknown status 0x%08x", status)
	}

	return s
}

// A required argument was nil.
type NullArgumentError struct {
	Text string
}

func NewNullArgumentError(text string) *NullArgumentError {
	return &NullArgumentError{
		Text: text,
	}
}

func FmtNullArgumentError(format string,
	args ...interface{}) *NullArgumentError {

	return NewNullArgumentError(fmt.Sprintf(format, args...))
}

func (e *NullArgumentError) Error() string {
	return e.Text
}

func IsNullArgument(err error) bool {
	_, ok := errors.Cause(err).(*NullArgumentError)
	return ok
}

// A buffer was too small to hold a mandatory field, or a decode did not
// consume exactly the declared packet length.
type InvalidLengthError struct {
	Text string
}

func NewInvalidLengthError(text string) *InvalidLengthError {
	return &InvalidLengthError{
		Text: text,
	}
}

func FmtInvalidLengthError(format string,
	args ...interface{}) *InvalidLengthError {

	return NewInvalidLengthError(fmt.Sprintf(format, args...))
}

func (e *InvalidLengthError) Error() string {
	return e.Text
}

func IsInvalidLength(err error) bool {
	_, ok := errors.Cause(err).(*InvalidLengthError)
	return ok
}

// Opcode mismatch, unrecognized enumeration value, malformed presence byte,
// or a count beyond a fixed platform maximum.
type InvalidParamError struct {
	Text string
}

func NewInvalidParamError(text string) *InvalidParamError {
	return &InvalidParamError{
		Text: text,
	}
}

func FmtInvalidParamError(format string,
	args ...interface{}) *InvalidParamError {

	return NewInvalidParamError(fmt.Sprintf(format, args...))
}

func (e *InvalidParamError) Error() string {
	return e.Text
}

func IsInvalidParam(err error) bool {
	_, ok := errors.Cause(err).(*InvalidParamError)
	return ok
}

// The security-context table is full.
type NoMemoryError struct {
	Text string
}

func NewNoMemoryError(text string) *NoMemoryError {
	return &NoMemoryError{
		Text: text,
	}
}

func (e *NoMemoryError) Error() string {
	return e.Text
}

func IsNoMemory(err error) bool {
	_, ok := errors.Cause(err).(*NoMemoryError)
	return ok
}

// No security context is bound to the requested connection handle.
type NotFoundError struct {
	Text string
}

func NewNotFoundError(text string) *NotFoundError {
	return &NotFoundError{
		Text: text,
	}
}

func FmtNotFoundError(format string, args ...interface{}) *NotFoundError {
	return NewNotFoundError(fmt.Sprintf(format, args...))
}

func (e *NotFoundError) Error() string {
	return e.Text
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// The remote BLE stack reported a non-success status for an operation.
type StackError struct {
	Text   string
	Status uint32
}

func NewStackError(status uint32, text string) *StackError {
	return &StackError{
		Status: status,
		Text:   text,
	}
}

func FmtStackError(status uint32, format string,
	args ...interface{}) *StackError {

	return NewStackError(status, fmt.Sprintf(format, args...))
}

func (e *StackError) Error() string {
	return e.Text
}

func IsStack(err error) bool {
	_, ok := errors.Cause(err).(*StackError)
	return ok
}

func ToStack(err error) *StackError {
	if serr, ok := errors.Cause(err).(*StackError); ok {
		return serr
	} else {
		return nil
	}
}

// Represents an application-layer timeout; request sent, but no response
// received.
type RspTimeoutError struct {
	Text string
}

func NewRspTimeoutError(text string) *RspTimeoutError {
	return &RspTimeoutError{
		Text: text,
	}
}

func FmtRspTimeoutError(format string, args ...interface{}) *RspTimeoutError {
	return NewRspTimeoutError(fmt.Sprintf(format, args...))
}

func (e *RspTimeoutError) Error() string {
	return e.Text
}

func IsRspTimeout(err error) bool {
	_, ok := errors.Cause(err).(*RspTimeoutError)
	return ok
}

// Represents a low-level transport error.
type XportError struct {
	Text string
}

func NewXportError(text string) *XportError {
	return &XportError{text}
}

func FmtXportError(format string, args ...interface{}) *XportError {
	return NewXportError(fmt.Sprintf(format, args...))
}

func (e *XportError) Error() string {
	return e.Text
}

func IsXport(err error) bool {
	if err == nil {
		return false
	}

	_, ok := errors.Cause(err).(*XportError)
	return ok
}

// NrfCode maps an error to the status code reported to the peer.  Codec
// errors map to their fixed codes; a stack error yields the stack's own
// status.
func NrfCode(err error) uint32 {
	if err == nil {
		return NRF_SUCCESS
	}

	switch e := errors.Cause(err).(type) {
	case *NullArgumentError:
		return NRF_ERROR_NULL
	case *InvalidLengthError:
		return NRF_ERROR_INVALID_LENGTH
	case *InvalidParamError:
		return NRF_ERROR_INVALID_PARAM
	case *NoMemoryError:
		return NRF_ERROR_NO_MEM
	case *NotFoundError:
		return NRF_ERROR_NOT_FOUND
	case *StackError:
		return e.Status
	case *RspTimeoutError:
		return NRF_ERROR_TIMEOUT
	default:
		return NRF_ERROR_INTERNAL
	}
}
