package main

import "testing"

func TestMainWiring(t *testing.T) {
	origSetVersion := setVersionInfo
	origExecute := executeCmd
	t.Cleanup(func() {
		setVersionInfo = origSetVersion
		executeCmd = origExecute
	})

	var gotVersion string
	executed := false
	setVersionInfo = func(v, c, d string) {
		gotVersion = v
	}
	executeCmd = func() {
		executed = true
	}

	main()

	if gotVersion != version {
		t.Fatalf("expected version %q, got %q", version, gotVersion)
	}
	if !executed {
		t.Fatal("expected root command to execute")
	}
}
