// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"encoding/xml"
	"fmt"
)

// Error is the typed failure half of Outcome (spec.md §3). StatusCode is 0
// for failures that never reached the wire (validation, signing,
// client-disabled).
type Error struct {
	Code       string
	Message    string
	RequestId  string
	HostId     string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("oss: %s (code=%s, status=%d, request-id=%s)", e.Message, e.Code, e.StatusCode, e.RequestId)
}

// ossErrorXML is the server's error envelope shape (spec.md §4.7): root
// element Error with Code/Message/RequestId/HostId child text elements.
type ossErrorXML struct {
	XMLName   xml.Name `xml:""`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestId string   `xml:"RequestId"`
	HostId    string   `xml:"HostId"`
}

// classifyXMLError implements the C7 ErrorClassifier contract exactly:
// missing children yield empty strings, and a root element that isn't
// "Error" yields a ParseXMLError carrying the raw payload (spec.md §4.7).
func classifyXMLError(raw []byte, statusCode int) *Error {
	var e ossErrorXML
	if err := xml.Unmarshal(raw, &e); err != nil {
		return &Error{
			Code:       "ParseXMLError",
			Message:    fmt.Sprintf("Xml format invalid, root node name is not Error. the content is:\n%s", raw),
			StatusCode: statusCode,
		}
	}
	if e.XMLName.Local != "Error" {
		return &Error{
			Code:       "ParseXMLError",
			Message:    "Xml format invalid, root node name is not Error. the content is:\n" + string(raw),
			StatusCode: statusCode,
		}
	}
	return &Error{
		Code:       e.Code,
		Message:    e.Message,
		RequestId:  e.RequestId,
		HostId:     e.HostId,
		StatusCode: statusCode,
	}
}
