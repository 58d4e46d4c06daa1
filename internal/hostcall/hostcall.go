// Package hostcall holds the small demo calls exposed next to synthesis on
// the command line.
package hostcall

import (
	"fmt"
	"strconv"
	"strings"
)

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

// Greet returns a greeting for name.
func Greet(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello, %s! 1 + 2 = %d", name, Add(1, 2))
}

// ParseAdd parses two integer operands and returns their sum.
func ParseAdd(a, b string) (int, error) {
	x, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, fmt.Errorf("invalid operand %q: %w", a, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, fmt.Errorf("invalid operand %q: %w", b, err)
	}
	return Add(x, y), nil
}
