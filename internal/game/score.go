// internal/game/score.go
//
// Feedback scoring for a single guess against the secret answer.
// Implements the standard two-pass algorithm, which is the only correct way
// to handle repeated letters in either the guess or the answer.

package game

// Score evaluates guess against answer and returns per-letter feedback.
//
// Pass 1:
//   - Mark exact positional matches as Correct.
//   - Count the remaining (non-matched) answer letters by letter index.
//
// Pass 2:
//   - For each non-Correct guess letter: if that letter still has remaining
//     count, mark Present and decrement; otherwise mark Absent.
//
// This guarantees the number of Present+Correct marks for any letter never
// exceeds that letter's occurrence count in the answer. Pure function; both
// inputs are assumed validated to equal-length lowercase a-z.
func Score(guess, answer string) Feedback {
	n := len(guess)
	fb := make(Feedback, n)

	// Frequency of answer letters at non-matched positions (a-z).
	var remaining [26]int

	for i := 0; i < n; i++ {
		if guess[i] == answer[i] {
			fb[i] = Correct
		} else {
			remaining[answer[i]-'a']++
		}
	}

	for i := 0; i < n; i++ {
		if fb[i] == Correct {
			continue
		}
		j := int(guess[i] - 'a')
		if j >= 0 && j < 26 && remaining[j] > 0 {
			fb[i] = Present
			remaining[j]--
		} else {
			fb[i] = Absent
		}
	}
	return fb
}

// isLowerAlpha reports whether s consists only of lowercase ASCII letters.
func isLowerAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
