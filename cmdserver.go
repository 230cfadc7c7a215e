// Package cmdserver defines the request/response documents exchanged through
// the command channel directory. Each document is a single JSON object; the
// response is terminated by one newline so a polling reader can tell a
// complete write from a partial one.
package cmdserver

import "encoding/json"

// Request is written by the external client to request.json.
type Request struct {
	// UUID is an opaque correlation identifier chosen by the client.
	// It is echoed back unchanged in the response.
	UUID string `json:"uuid"`
	// CommandID names the command to run (e.g. "jumpToLine").
	CommandID string `json:"commandId"`
	// Args holds the positional arguments. Their types depend on the command;
	// they are decoded into a typed payload at dispatch.
	Args []json.RawMessage `json:"args"`
	// ReturnCommandOutput asks for the command's return value.
	ReturnCommandOutput bool `json:"returnCommandOutput"`
	// WaitForFinish asks the server to wait for the command to finish before
	// writing the response, even when the return value is not wanted.
	WaitForFinish bool `json:"waitForFinish"`
}

// Response is written by the server to response.json.
type Response struct {
	// ReturnValue is the command result, set only when requested and the
	// command succeeded.
	ReturnValue any `json:"returnValue"`
	// UUID is copied from the request.
	UUID string `json:"uuid"`
	// Error is a human-readable message when the command failed.
	Error *string `json:"error"`
	// Warnings are advisory messages. Never null on the wire.
	Warnings []string `json:"warnings"`
}

// NewResponse returns an empty response for the given request id.
func NewResponse(uuid string) *Response {
	return &Response{
		UUID:     uuid,
		Warnings: []string{},
	}
}

// SetError records msg as the response error.
func (r *Response) SetError(msg string) {
	r.Error = &msg
}

// Warn appends an advisory message.
func (r *Response) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Failed reports whether the response carries an error.
func (r *Response) Failed() bool {
	return r.Error != nil
}
