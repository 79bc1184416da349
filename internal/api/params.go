package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// params merges query string, form and JSON body values. Body values win.
type params map[string]any

func readParams(r *http.Request) (params, error) {
	p := params{}
	for k, v := range r.URL.Query() {
		p.setValues(k, v)
	}
	if r.Body == nil || r.Method == http.MethodGet {
		return p, nil
	}

	ct := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("invalid form: %w", err)
		}
		for k, v := range r.MultipartForm.Value {
			p.setValues(k, v)
		}
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form: %w", err)
		}
		for k, v := range r.PostForm {
			p.setValues(k, v)
		}
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return p, nil
		}
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		for k, v := range m {
			p[k] = v
		}
	}
	return p, nil
}

func (p params) setValues(k string, v []string) {
	switch len(v) {
	case 0:
	case 1:
		p[k] = v[0]
	default:
		p[k] = v
	}
}

// str returns the first non-empty value among keys.
func (p params) str(keys ...string) string {
	for _, k := range keys {
		var s string
		switch v := p[k].(type) {
		case string:
			s = v
		case []string:
			if len(v) > 0 {
				s = v[0]
			}
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (p params) flag(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	}
	b, _ := strconv.ParseBool(p.str(key))
	return b
}

// list reads a JSON array, repeated form fields, or a single value that is
// either a JSON array or a comma separated list.
func (p params) list(key string) []string {
	var raw []string
	switch v := p[key].(type) {
	case []any:
		for _, x := range v {
			switch x := x.(type) {
			case string:
				raw = append(raw, x)
			case float64:
				raw = append(raw, strconv.FormatFloat(x, 'f', -1, 64))
			}
		}
	case []string:
		raw = v
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") {
			if err := json.Unmarshal([]byte(s), &raw); err == nil {
				break
			}
		}
		raw = strings.Split(s, ",")
	}
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		out = append(out, strings.TrimSpace(a))
	}
	if len(out) == 1 && out[0] == "" {
		return nil
	}
	return out
}
