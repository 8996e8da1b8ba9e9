package password

// MinScore is the lowest acceptable Score for sign-up; MinLength is checked
// independently so a long-but-degenerate password cannot sneak in.
const (
	MinScore  = 1
	MinLength = 8
)

// Score rates a password 0..100. Anything under 8 characters scores 0
// unconditionally. Otherwise: 4 points per character, +5 for each character
// class present (lower, upper, digit, symbol), +2 when three or more classes
// are present, -10 when the password is letters-only or digits-only, and -2
// for every 3-character window that is a strictly ascending/descending ASCII
// run or a triple repeat ("abc", "321", "aaa").
func Score(password string) int {
	if len(password) < MinLength {
		return 0
	}

	score := 4 * len(password)

	var lower, upper, digit, symbol bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, symbol} {
		if present {
			score += 5
			classes++
		}
	}
	if classes >= 3 {
		score += 2
	}

	if (lower || upper) && !digit && !symbol {
		score -= 10
	}
	if digit && !lower && !upper && !symbol {
		score -= 10
	}

	score -= 2 * countRuns(password)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Acceptable is the sign-up gate: minimum length and a non-zero score.
func Acceptable(password string) bool {
	return len(password) >= MinLength && Score(password) >= MinScore
}

// countRuns counts 3-byte windows that are strictly sequential (up or down)
// or a triple repeat. Windows overlap, matching how users actually type
// "abcd" (two runs).
func countRuns(s string) int {
	runs := 0
	for i := 0; i+2 < len(s); i++ {
		a, b, c := s[i], s[i+1], s[i+2]
		if (b == a+1 && c == b+1) || (b == a-1 && c == b-1) {
			runs++
		}
		if a == b && b == c {
			runs++
		}
	}
	return runs
}
