package vk

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const (
	APIVersion = "5.12"
	AuthURL    = "https://oauth.vk.com/access_token"
	APIURL     = "https://api.vk.com/method/"
)

// Mode selects how requests are authorized.
type Mode string

const (
	ModeOAuth Mode = "oauth"
	ModeSig   Mode = "sig"
)

func (m Mode) valid() bool {
	return m == ModeOAuth || m == ModeSig
}

// Credentials identify the application to VK.
type Credentials struct {
	AppID     string
	AppSecret string
	Mode      Mode
}

// Callback receives the outcome of a method call. Exactly one of err and
// result is set.
type Callback func(err error, result json.RawMessage)

// InitCallback receives the outcome of an authorization exchange; err is nil
// on success.
type InitCallback func(err error)

// truthy reports whether a decoded JSON value would pass a loose boolean test:
// null, false, 0 and "" are false, everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// decodeNumbers decodes a single JSON value, keeping numbers as json.Number so
// their digits survive.
func decodeNumbers(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid data after top-level value")
	}
	return v, nil
}
