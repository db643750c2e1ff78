// Package netx holds the JSON-over-HTTP plumbing shared by API clients.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx response. Title, Detail and Fields are filled from
// an RFC 7807 problem body when the server sent one.
type HTTPError struct {
	StatusCode int
	Title      string
	Detail     string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			parts = append(parts, k+" "+v)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, msg)
}

type problem struct {
	Title  string            `json:"title"`
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors"`
}

// DoJSON sends body (if non-nil) as JSON and decodes a 2xx response into
// out (if non-nil). bearer, when set, goes into the Authorization header.
func DoJSON(ctx context.Context, c *http.Client, method, url, bearer string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := &HTTPError{StatusCode: resp.StatusCode}
		var p problem
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&p); err == nil {
			herr.Title, herr.Detail, herr.Fields = p.Title, p.Detail, p.Errors
		}
		return herr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
