package validate

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/todo", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/todo/abc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return req
}

func TestDecodeTitleAcceptsFormAndJSON(t *testing.T) {
	title, err := DecodeTitle(formRequest(url.Values{"title": {"Buy milk"}}))
	if err != nil {
		t.Fatalf("form: unexpected error %v", err)
	}
	if title != "Buy milk" {
		t.Fatalf("form: expected Buy milk, got %q", title)
	}

	title, err = DecodeTitle(jsonRequest(`{"title":"Updated"}`))
	if err != nil {
		t.Fatalf("json: unexpected error %v", err)
	}
	if title != "Updated" {
		t.Fatalf("json: expected Updated, got %q", title)
	}
}

func TestDecodeTitlePreservesWhitespace(t *testing.T) {
	raw := "  line one\n\tline two  "
	title, err := DecodeTitle(formRequest(url.Values{"title": {raw}}))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if title != raw {
		t.Fatalf("expected title preserved verbatim, got %q", title)
	}
}

func TestDecodeTitleRejects(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "empty form title", req: formRequest(url.Values{"title": {""}})},
		{name: "whitespace form title", req: formRequest(url.Values{"title": {" \n\t "}})},
		{name: "missing form title", req: formRequest(url.Values{"other": {"x"}})},
		{name: "empty json title", req: jsonRequest(`{"title":""}`)},
		{name: "missing json title", req: jsonRequest(`{}`)},
		{name: "numeric json title", req: jsonRequest(`{"title":42}`)},
		{name: "ideographic space", req: formRequest(url.Values{"title": {"\u3000"}})},
		{name: "no-break space", req: formRequest(url.Values{"title": {"\u00a0"}})},
		{name: "vertical tab", req: formRequest(url.Values{"title": {"\v"}})},
		{name: "em space padded", req: jsonRequest(`{"title":" \u2003 "}`)},
		{name: "next line", req: formRequest(url.Values{"title": {"\u0085"}})},
		{name: "byte order mark", req: formRequest(url.Values{"title": {"\ufeff \u3000"}})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTitle(tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != "title" {
				t.Fatalf("expected field title, got %q (%v)", ve.Field, ve)
			}
		})
	}
}

func TestDecodeTitleMalformedJSON(t *testing.T) {
	_, err := DecodeTitle(jsonRequest(`{"title":`))
	var be *BodyError
	if !errors.As(err, &be) {
		t.Fatalf("expected BodyError, got %v", err)
	}
}

func TestPayloadValidatesDecodedMap(t *testing.T) {
	if err := Payload(map[string]any{"title": "ok"}); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
	if err := Payload(map[string]any{"title": ""}); err == nil {
		t.Fatalf("expected empty title to fail")
	}
}

func TestPayloadRejectsUnicodeWhitespace(t *testing.T) {
	for _, title := range []string{"\u3000", "\u00a0", "\v", " \u2003 ", "\u2028", "\ufeff"} {
		if err := Payload(map[string]any{"title": title}); err == nil {
			t.Fatalf("whitespace-only title %q accepted", title)
		}
	}
	if err := Payload(map[string]any{"title": "\u3000牛乳を買う\u3000"}); err != nil {
		t.Fatalf("expected padded title to pass, got %v", err)
	}
}

func multipartRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/todo", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDecodeTitleAcceptsMultipart(t *testing.T) {
	title, err := DecodeTitle(multipartRequest(t, map[string]string{"title": "Buy milk"}))
	if err != nil {
		t.Fatalf("multipart: unexpected error %v", err)
	}
	if title != "Buy milk" {
		t.Fatalf("multipart: expected Buy milk, got %q", title)
	}

	_, err = DecodeTitle(multipartRequest(t, map[string]string{"title": "\u3000"}))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("multipart: expected ValidationError for blank title, got %v", err)
	}
}
