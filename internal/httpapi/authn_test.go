package httpapi

import (
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr string
	}{
		{"plain", "Bearer abc.def.ghi", "abc.def.ghi", ""},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi", ""},
		{"padded", "  Bearer abc.def.ghi  ", "abc.def.ghi", ""},
		{"empty", "", "", "missing bearer token"},
		{"scheme only", "Bearer ", "", "missing bearer token"},
		{"wrong scheme", "Basic dXNlcjpwdw==", "", "invalid authorization scheme"},
		{"no scheme", "abc.def.ghi", "", "invalid authorization scheme"},
	}

	for _, tc := range cases {
		token, err := extractBearerToken(tc.header)
		if tc.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
				continue
			}
			if token != tc.want {
				t.Errorf("%s: got %q, want %q", tc.name, token, tc.want)
			}
			continue
		}
		if err == nil || err.Error() != tc.wantErr {
			t.Errorf("%s: got error %v, want %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, p := range []string{"/v1/auth/login", "/v1/auth/signup", "/metrics", "/healthz", "/readyz", "/v1/info", "/"} {
		if !isPublicPath(p) {
			t.Errorf("%s should be public", p)
		}
	}
	for _, p := range []string{"/v1/auth/verify", "/v1/auth/logout", "/v1/auth/password", "/v1/auth/account", "/v1/auth/login/x"} {
		if isPublicPath(p) {
			t.Errorf("%s should require authentication", p)
		}
	}
}
