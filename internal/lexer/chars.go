package lexer

// Классы байтов ASCII; байты >= 0x80 не входят ни в один.
const (
	space uint8 = 1 << iota
	digit
	letter
	opchar
	underscore
)

var classes = func() (t [256]uint8) {
	for _, c := range " \t\r\n" {
		t[c] |= space
	}
	for c := '0'; c <= '9'; c++ {
		t[c] |= digit
	}
	for c := 'a'; c <= 'z'; c++ {
		t[c] |= letter
		t[c-'a'+'A'] |= letter
	}
	for _, c := range `+-*/\=<>!%&|?~^@` {
		t[c] |= opchar
	}
	t['_'] |= underscore
	return t
}()

func is(c byte, mask uint8) bool { return classes[c]&mask != 0 }

// digitOf is the value of c as a digit of base 36. Anything else gives 36,
// which is out of every base.
func digitOf(c byte) int {
	switch {
	case is(c, digit):
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 36
}
