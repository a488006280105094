package api

import (
	"errors"
	"strings"
	"testing"

	"boardify-api/domain"
)

func TestDecodeJSONSingleValue(t *testing.T) {
	var in domain.BoardCreate
	if err := decodeJSON(strings.NewReader(`{"name":"x"}`+"\n  "), &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Name != "x" {
		t.Fatalf("unexpected name: %q", in.Name)
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	for _, body := range []string{`{"name":"x"}junk`, `{"name":"x"}}`, `{"name":"x"} {"name":"y"}`} {
		var in domain.BoardCreate
		if err := decodeJSON(strings.NewReader(body), &in); !errors.Is(err, errTrailingData) {
			t.Fatalf("decodeJSON(%q) = %v, want errTrailingData", body, err)
		}
	}
}
