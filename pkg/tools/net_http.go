package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpBodyMax caps the returned response body.
const httpBodyMax = 64 * 1024

// NetHTTP performs a single HTTP request. The request is built
// deterministically from the args; responses larger than 64 KiB are
// truncated and flagged.
func NetHTTP(args map[string]any, dryRun bool) (map[string]any, error) {
	method := "POST"
	if v, ok := args["method"].(string); ok && v != "" {
		method = strings.ToUpper(v)
	}
	url, err := requireString(args, "net.http", "url")
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if raw, present := args["headers"]; present && raw != nil {
		rawMap, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("net.http: 'headers' must be an object of string->string when provided")
		}
		for k, v := range rawMap {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("net.http: 'headers' must be an object of string->string when provided")
			}
			headers[k] = s
		}
	}

	timeout := 10 * time.Second
	switch v := args["timeout_s"].(type) {
	case float64:
		if v > 0 {
			timeout = time.Duration(v * float64(time.Second))
		}
	case int:
		if v > 0 {
			timeout = time.Duration(v) * time.Second
		}
	}

	var body []byte
	if v, present := args["json"]; present && v != nil {
		body, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("net.http: encode json body: %w", err)
		}
		if _, set := headers["Content-Type"]; !set {
			headers["Content-Type"] = "application/json; charset=utf-8"
		}
	} else if v, present := args["body"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("net.http: 'body' must be a string when provided")
		}
		body = []byte(s)
	}

	if dryRun {
		return map[string]any{
			"dry_run": true,
			"expected_effects": []any{
				effect("net_http", fmt.Sprintf("HTTP %s %s", method, url), url),
			},
		}, nil
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("net.http: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("net.http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, httpBodyMax+1))
	if err != nil {
		return nil, fmt.Errorf("net.http: read response: %w", err)
	}
	truncated := len(raw) > httpBodyMax
	if truncated {
		raw = raw[:httpBodyMax]
	}

	respHeaders := map[string]any{}
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	return map[string]any{
		"dry_run":   false,
		"status":    resp.StatusCode,
		"headers":   respHeaders,
		"body_text": string(raw),
		"truncated": truncated,
	}, nil
}
