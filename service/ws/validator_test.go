package ws

import (
	"context"
	"testing"
)

func TestValidatorOutcomes(t *testing.T) {
	v := NewValidator(testSecret, storeFor("u1"))
	ctx := context.Background()

	cases := []struct {
		name    string
		cred    string
		claimed string
		want    Reason
	}{
		{"ok", signedCred("sid-u1"), "u1", ReasonOK},
		{"no credential", "", "u1", ReasonNoCredential},
		{"forged signature", "s:sid-u1.AAAA", "u1", ReasonBadSignature},
		{"unsigned value", "sid-u1", "u1", ReasonBadSignature},
		{"no session", signedCred("sid-gone"), "u1", ReasonNoSession},
		{"user mismatch", signedCred("sid-u1"), "u2", ReasonUserMismatch},
	}
	for _, tc := range cases {
		got, err := v.Validate(ctx, tc.cred, tc.claimed)
		if err != nil {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: reason=%s want %s", tc.name, got, tc.want)
		}
	}
}

// 缺失/伪造/无会话对外一律 4401 同文案，身份不符才 4403
func TestReasonCloseCodeUniform(t *testing.T) {
	for _, r := range []Reason{ReasonNoCredential, ReasonBadSignature, ReasonNoSession} {
		if r.CloseCode() != CloseUnauthorized || r.CloseText() != "unauthorized" {
			t.Fatalf("%s: code=%d text=%q", r, r.CloseCode(), r.CloseText())
		}
	}
	if ReasonUserMismatch.CloseCode() != CloseForbidden {
		t.Fatalf("mismatch code = %d", ReasonUserMismatch.CloseCode())
	}
}
