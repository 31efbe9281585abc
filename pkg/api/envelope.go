package api

import (
	"encoding/json"
	"strings"
)

// Synthesized error codes. The remote may add its own codes (for example
// SESSION_EXPIRED); these three are produced on the client side only.
const (
	CodeTransport = "TRANSPORT"
	CodeProtocol  = "PROTOCOL"
	CodeNoSession = "NO_SESSION"
)

// User-facing messages stay in Bahasa Indonesia; raw transport or parse
// detail is kept in RemoteError.Details and never shown directly.
const (
	msgTransport = "Koneksi ke server gagal"
	msgProtocol  = "Respons server tidak dikenali"
	msgNoSession = "Sesi tidak valid"
)

// Envelope is the uniform result of every remote call. Transport and
// protocol failures are folded into it; callers never see a raw error
// from the HTTP layer.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Err     *RemoteError    `json:"error,omitempty"`
}

// RemoteError carries the failure half of an Envelope.
type RemoteError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return msgTransport
	}
	return e.Message
}

// ErrCode returns the error code of a failed envelope, or "".
func (e Envelope) ErrCode() string {
	if e.Success || e.Err == nil {
		return ""
	}
	return e.Err.Code
}

// AuthRequired reports whether the failure means the caller has to log in
// (again) before retrying.
func (e Envelope) AuthRequired() bool {
	switch e.ErrCode() {
	case CodeNoSession, "SESSION_EXPIRED", "UNAUTHORIZED":
		return true
	}
	return false
}

// Decode unmarshals the payload of a successful envelope into v. On a
// failed envelope it returns the RemoteError instead.
func (e Envelope) Decode(v any) error {
	if !e.Success {
		if e.Err != nil {
			return e.Err
		}
		return &RemoteError{Message: msgProtocol, Code: CodeProtocol}
	}
	if v == nil || len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return &RemoteError{Message: msgProtocol, Details: err.Error(), Code: CodeProtocol}
	}
	return nil
}

func transportFailure(details string) Envelope {
	return Envelope{Err: &RemoteError{Message: msgTransport, Details: details, Code: CodeTransport}}
}

func protocolFailure(details string) Envelope {
	return Envelope{Err: &RemoteError{Message: msgProtocol, Details: details, Code: CodeProtocol}}
}

func noSessionFailure() Envelope {
	return Envelope{Err: &RemoteError{Message: msgNoSession, Code: CodeNoSession}}
}

// parseEnvelope normalizes a raw response body. The script backend is not
// strict about its own contract: error may be a bare string or an object,
// and some actions put their payload next to success instead of under data.
func parseEnvelope(body []byte) Envelope {
	var wire struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   json.RawMessage `json:"error"`
		Details string          `json:"details"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return protocolFailure(err.Error())
	}
	if wire.Success == nil {
		return protocolFailure("response has no success field")
	}
	if !*wire.Success {
		return Envelope{Err: parseRemoteError(wire.Error, wire.Details)}
	}
	env := Envelope{Success: true, Data: wire.Data}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		// Payload beside success, e.g. {"success":true,"sessionId":...}.
		env.Data = json.RawMessage(body)
	}
	return env
}

func parseRemoteError(raw json.RawMessage, details string) *RemoteError {
	if len(raw) == 0 {
		return &RemoteError{Message: msgTransport, Details: details}
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		if strings.TrimSpace(msg) == "" {
			msg = msgTransport
		}
		return &RemoteError{Message: msg, Details: details}
	}
	var obj RemoteError
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		if obj.Details == "" {
			obj.Details = details
		}
		return &obj
	}
	return &RemoteError{Message: msgTransport, Details: string(raw)}
}
