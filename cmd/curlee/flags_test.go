package main

import "testing"

func TestParseRunFlagsRepeatingCaps(t *testing.T) {
	f, err := parseRunFlags([]string{"--cap", "io:stdout", "--cap=net:none", "prog.curlee"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.caps) != 2 || f.caps[0] != "io:stdout" || f.caps[1] != "net:none" {
		t.Fatalf("unexpected caps: %v", f.caps)
	}
	if f.file != "prog.curlee" {
		t.Fatalf("unexpected file: %q", f.file)
	}
}

func TestParseRunFlagsMissingCapValueIsUsageError(t *testing.T) {
	if _, err := parseRunFlags([]string{"--cap"}); err == nil {
		t.Fatalf("expected a usage error for missing --cap value")
	}
}

func TestParseRunFlagsEmptyCapValueIsUsageError(t *testing.T) {
	if _, err := parseRunFlags([]string{"--cap="}); err == nil {
		t.Fatalf("expected a usage error for empty --cap value")
	}
}

func TestParseRunFlagsFuelAndBundle(t *testing.T) {
	f, err := parseRunFlags([]string{"--fuel", "42", "--bundle=out.bundle", "prog.curlee"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.fuel == nil || *f.fuel != 42 {
		t.Fatalf("unexpected fuel: %v", f.fuel)
	}
	if f.bundlePath != "out.bundle" {
		t.Fatalf("unexpected bundle path: %q", f.bundlePath)
	}
}

func TestParseRunFlagsNegativeFuelIsUsageError(t *testing.T) {
	if _, err := parseRunFlags([]string{"--fuel", "-1", "prog.curlee"}); err == nil {
		t.Fatalf("expected a usage error for negative fuel")
	}
}

func TestParseRunFlagsMissingFileIsUsageError(t *testing.T) {
	if _, err := parseRunFlags([]string{"--cap", "io:stdout"}); err == nil {
		t.Fatalf("expected a usage error for a missing FILE argument")
	}
}

func TestRunUnknownCommandIsUsageError(t *testing.T) {
	if code := run([]string{"bogus"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunNoArgsIsUsageError(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunVersion(t *testing.T) {
	if code := run([]string{"version"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}
