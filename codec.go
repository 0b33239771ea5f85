package nwc

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigFastest

// Request is the plaintext NIP-47 request envelope, encrypted into the
// content of a kind-23194 event.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// Response is the plaintext NIP-47 response envelope carried by kind-23195
// events. Exactly one of Result and Error is set on a well-formed response.
type Response struct {
	ResultType string              `json:"result_type"`
	Error      *ResponseError      `json:"error"`
	Result     jsoniter.RawMessage `json:"result"`
}

// encodeRequest serializes a request envelope. Optional params fields are
// omitted entirely (never null), which is what wallet services expect. A nil
// params becomes an empty object.
func encodeRequest(method string, params any) ([]byte, error) {
	if params == nil {
		params = struct{}{}
	}
	return json.Marshal(Request{Method: method, Params: params})
}

// decodeResponse validates a decrypted response envelope against the method
// that originated it and unmarshals the result into result (which may be nil
// when the caller doesn't care about the payload). A semantic error reported
// by the wallet is returned as a *ResponseError; every shape problem wraps
// ErrProtocolViolation. Unknown fields are ignored for forward compatibility.
func decodeResponse(plain string, expectedMethod string, result any) error {
	if !gjson.Valid(plain) || !gjson.Parse(plain).IsObject() {
		return fmt.Errorf("%w: response is not a JSON object", ErrProtocolViolation)
	}

	var resp Response
	if err := json.UnmarshalFromString(plain, &resp); err != nil {
		return fmt.Errorf("%w: %s", ErrProtocolViolation, err)
	}

	if resp.ResultType != expectedMethod {
		return fmt.Errorf("%w: result_type '%s' does not match requested method '%s'",
			ErrProtocolViolation, resp.ResultType, expectedMethod)
	}

	hasResult := len(resp.Result) > 0 && string(resp.Result) != "null"
	switch {
	case resp.Error != nil && hasResult:
		return fmt.Errorf("%w: response carries both result and error", ErrProtocolViolation)
	case resp.Error != nil:
		if resp.Error.Code == "" {
			resp.Error.Code = Other
		}
		return resp.Error
	case !hasResult:
		return fmt.Errorf("%w: response carries neither result nor error", ErrProtocolViolation)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%w: %s", ErrProtocolViolation, err)
	}
	return nil
}
