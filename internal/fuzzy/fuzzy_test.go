package fuzzy

import (
	"reflect"
	"testing"
)

func TestNormalize_AuthFailure(t *testing.T) {
	input := " authentication failure; logname= uid=0 euid=0 tty=NODEV ruser= rhost=218.188.2.4"
	got := Normalize(input)
	want := "authentication failure; logname= uid=<NUM> euid=<NUM> tty=NODEV ruser= rhost=<IP>"
	if got != want {
		t.Errorf("Normalize auth failure:\ngot  %q\nwant %q", got, want)
	}
}

func TestNormalize_UUIDs(t *testing.T) {
	input := "job 550e8400-e29b-41d4-a716-446655440000 finished"
	got := Normalize(input)
	want := "job <UUID> finished"
	if got != want {
		t.Errorf("Normalize UUID:\ngot  %q\nwant %q", got, want)
	}
}

func TestNormalize_IPWithPort(t *testing.T) {
	input := "connection from 192.168.1.1:8080 refused"
	got := Normalize(input)
	want := "connection from <IP> refused"
	if got != want {
		t.Errorf("Normalize IP:\ngot  %q\nwant %q", got, want)
	}
}

func TestNormalize_MAC(t *testing.T) {
	input := "eth0: link up, hwaddr 00:0c:29:aa:bb:cc"
	got := Normalize(input)
	want := "eth0: link up, hwaddr <MAC>"
	if got != want {
		t.Errorf("Normalize MAC:\ngot  %q\nwant %q", got, want)
	}
}

func TestNormalize_ClockTime(t *testing.T) {
	input := "alarm set for 04:06:18"
	got := Normalize(input)
	want := "alarm set for <TIME>"
	if got != want {
		t.Errorf("Normalize clock:\ngot  %q\nwant %q", got, want)
	}
}

func TestNormalize_HexAndPaths(t *testing.T) {
	input := "segfault at 0xdeadbeef in /usr/lib/libc.so.6"
	got := Normalize(input)
	want := "segfault at <HEX> in <PATH>"
	if got != want {
		t.Errorf("Normalize hex/path:\ngot  %q\nwant %q", got, want)
	}
}

func TestNormalize_EmptyString(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("Normalize empty: got %q, want empty", got)
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Session opened for user <NUM>; rhost=<IP>")
	want := []string{"session", "opened", "for", "user", "<num>", "rhost", "<ip>"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens:\ngot  %v\nwant %v", got, want)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abd", 1},
		{"abc", "abcd", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if d := levenshtein(tt.a, tt.b); d != tt.want {
			t.Errorf("levenshtein(%q, %q): got %d, want %d", tt.a, tt.b, d, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if s := similarity("hello", "hello"); s != 1.0 {
		t.Errorf("similarity identical: got %f, want 1.0", s)
	}
	if s := similarity("abc", "xyz"); s >= 0.5 {
		t.Errorf("similarity different: got %f, want < 0.5", s)
	}
	if s := similarity("", ""); s != 1.0 {
		t.Errorf("similarity empty: got %f, want 1.0", s)
	}
}

func TestGroup_SSHDFailures(t *testing.T) {
	messages := []string{
		" authentication failure; logname= uid=0 euid=0 tty=NODEV ruser= rhost=218.188.2.4",
		" authentication failure; logname= uid=0 euid=0 tty=NODEV ruser= rhost=220.135.151.1",
		" session opened for user cyrus by (uid=0)",
		" authentication failure; logname= uid=0 euid=0 tty=NODEV ruser= rhost=61.53.154.93",
	}
	groups := Group(messages)
	if len(groups) != 2 {
		t.Fatalf("Group sshd: got %d groups, want 2", len(groups))
	}
	if groups[0].Count != 3 {
		t.Errorf("Group sshd: top count got %d, want 3", groups[0].Count)
	}
	if groups[1].Count != 1 {
		t.Errorf("Group sshd: second count got %d, want 1", groups[1].Count)
	}
}

func TestGroup_DifferentMessages(t *testing.T) {
	messages := []string{
		"connection refused",
		"disk space low",
		"deployment started",
	}
	groups := Group(messages)
	if len(groups) != 3 {
		t.Fatalf("Group different: got %d groups, want 3", len(groups))
	}
	for i, want := range messages {
		if groups[i].Template != want {
			t.Errorf("Group different: position %d got %q, want %q", i, groups[i].Template, want)
		}
	}
}

func TestGroup_Empty(t *testing.T) {
	if groups := Group(nil); len(groups) != 0 {
		t.Errorf("Group empty: got %d groups, want 0", len(groups))
	}
}

func TestGroup_SamplesLimited(t *testing.T) {
	messages := make([]string, 100)
	for i := range messages {
		messages[i] = "Identical error message"
	}
	groups := Group(messages)
	if len(groups) != 1 {
		t.Fatalf("Group samples: got %d groups, want 1", len(groups))
	}
	if groups[0].Count != 100 {
		t.Errorf("Group samples: count got %d, want 100", groups[0].Count)
	}
	if len(groups[0].Samples) > maxSamplesPerPattern {
		t.Errorf("Group samples: got %d samples, want <= %d", len(groups[0].Samples), maxSamplesPerPattern)
	}
}

func TestGroupWithThreshold_MergesNearTemplates(t *testing.T) {
	messages := []string{
		"connection timeout to server alpha",
		"connection timeout to server alphb",
	}
	if groups := GroupWithThreshold(messages, 0.9); len(groups) != 1 {
		t.Errorf("GroupWithThreshold merge: got %d groups, want 1", len(groups))
	}
	if groups := GroupWithThreshold(messages, 1.0); len(groups) != 2 {
		t.Errorf("GroupWithThreshold strict: got %d groups, want 2", len(groups))
	}
}
