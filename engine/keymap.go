package engine

import (
	"fmt"
	"sort"
	"strings"
)

// keyCodes maps symbolic key names to the firmware's key codes. Code 16 is
// the radio's PTT, which the firmware refuses over UART, so it has no name
// here.
var keyCodes = map[string]uint8{
	"0":     0,
	"1":     1,
	"2":     2,
	"3":     3,
	"4":     4,
	"5":     5,
	"6":     6,
	"7":     7,
	"8":     8,
	"9":     9,
	"MENU":  10,
	"UP":    11,
	"DOWN":  12,
	"EXIT":  13,
	"STAR":  14,
	"F":     15,
	"SIDE2": 17,
	"SIDE1": 18,
}

// KeyCode resolves a symbolic key name (case-insensitive) to its code.
func KeyCode(name string) (uint8, error) {
	code, ok := keyCodes[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return code, nil
}

// KeyNames returns all recognized key names in sorted order.
func KeyNames() []string {
	names := make([]string, 0, len(keyCodes))
	for name := range keyCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
