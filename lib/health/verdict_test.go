// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import "testing"

func TestVerdictTextRoundTrip(t *testing.T) {
	for _, verdict := range Verdicts() {
		text, err := verdict.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", verdict, err)
		}
		var decoded Verdict
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if decoded != verdict {
			t.Errorf("round trip of %v produced %v", verdict, decoded)
		}
	}
}

func TestVerdictString(t *testing.T) {
	if got := PortUnreachable.String(); got != "port_unreachable" {
		t.Errorf("PortUnreachable.String() = %q", got)
	}
	if got := Verdict(99).String(); got != "verdict(99)" {
		t.Errorf("Verdict(99).String() = %q", got)
	}
	var decoded Verdict
	if err := decoded.UnmarshalText([]byte("exploded")); err == nil {
		t.Error("UnmarshalText accepted an unknown name")
	}
}

func TestVerdictOK(t *testing.T) {
	for _, verdict := range Verdicts() {
		if got, want := verdict.OK(), verdict == Healthy; got != want {
			t.Errorf("%v.OK() = %v, want %v", verdict, got, want)
		}
	}
}

func TestParseStaleLogPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    StaleLogPolicy
		wantErr bool
	}{
		{"", PolicyPermissive, false},
		{"permissive", PolicyPermissive, false},
		{"strict", PolicyStrict, false},
		{"lenient", "", true},
	}
	for _, test := range tests {
		got, err := ParseStaleLogPolicy(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseStaleLogPolicy(%q) error = %v, wantErr %v", test.input, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("ParseStaleLogPolicy(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}
