package jwtauth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/elnormous/contenttype"
)

var (
	jsonMediaType = contenttype.NewMediaType("application/json")
	formMediaType = contenttype.NewMediaType("application/x-www-form-urlencoded")
)

// readBody decodes a JSON or urlencoded body into flat string values. Any
// other content type reads as empty, which the flows report as missing
// fields.
func (m *Middleware) readBody(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	ctype, err := contenttype.GetMediaType(r)

	switch {
	case err != nil:
		return url.Values{}, nil
	case ctype.Matches(jsonMediaType):
		return readJSONBody(http.MaxBytesReader(w, r.Body, m.cfg.MaxBodyBytes))
	case ctype.Matches(formMediaType):
		r.Body = http.MaxBytesReader(w, r.Body, m.cfg.MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return r.PostForm, nil
	default:
		return url.Values{}, nil
	}
}

func readJSONBody(body io.Reader) (url.Values, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	out := make(url.Values, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out.Set(k, val)
		case json.Number:
			out.Set(k, val.String())
		}
	}
	return out, nil
}
