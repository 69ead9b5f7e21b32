package main

import "testing"

func TestIsWeakSecret(t *testing.T) {
	cases := []struct {
		secret string
		want   bool
	}{
		{secret: "short", want: true},
		{secret: "change-me-in-production-change-me-now", want: true},
		{secret: "Qm9vdHN0cmFwLXNlY3JldC1mb3ItcmVjb3Zlcnk", want: false},
	}
	for _, tc := range cases {
		if got := isWeakSecret(tc.secret); got != tc.want {
			t.Fatalf("isWeakSecret(%q) want %v got %v", tc.secret, tc.want, got)
		}
	}
}
