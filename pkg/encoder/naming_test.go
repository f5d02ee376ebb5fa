package encoder

import (
	"strings"
	"testing"
	"time"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{name: "plain", tag: "x", want: "plain"},
		{name: "a_%tag%", tag: "gif", want: "a_gif"},
		{name: "d_%date:2006%", tag: "", want: "d_" + time.Now().Format("2006")},
	}
	for _, tt := range tests {
		if got := ParseName(tt.name, tt.tag); got != tt.want {
			t.Errorf("ParseName(%v) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseNameRand(t *testing.T) {
	got := ParseName("r_%rand:5%", "")
	if !strings.HasPrefix(got, "r_") || len(got) != 7 {
		t.Errorf("unexpected name: %v", got)
	}
	if got == ParseName("r_%rand:5%", "") {
		// not impossible, just 1 in 52^5
		t.Logf("two random names collided: %v", got)
	}
}
