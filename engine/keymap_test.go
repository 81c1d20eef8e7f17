package engine

import "testing"

func TestKeyCode(t *testing.T) {
	testCases := []struct {
		name string
		code uint8
		ok   bool
	}{
		{"0", 0, true},
		{"9", 9, true},
		{"MENU", 10, true},
		{"menu", 10, true},
		{"Side1", 18, true},
		{"SIDE2", 17, true},
		{"PTT", 0, false},
		{"16", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := KeyCode(tc.name)
			if tc.ok && err != nil {
				t.Fatalf("KeyCode(%q) error: %v", tc.name, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("KeyCode(%q) = %d, expected error", tc.name, code)
			}
			if tc.ok && code != tc.code {
				t.Errorf("KeyCode(%q) = %d, want %d", tc.name, code, tc.code)
			}
		})
	}
}

func TestKeyNames(t *testing.T) {
	names := KeyNames()
	if len(names) != 18 {
		t.Errorf("expected 18 key names, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}
