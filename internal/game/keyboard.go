// internal/game/keyboard.go
//
// Keyboard tracks the best-known status per letter across all guesses in a
// session, so a renderer can shade its on-screen keyboard. Statuses only
// ever improve: Correct beats Present beats Absent, and there is no removal.

package game

// Keyboard maps a single-letter key ("a".."z") to the best Code observed
// for that letter so far. Letters never guessed are simply missing.
type Keyboard map[string]Code

// Update merges one guess and its feedback into the keyboard using the
// dominance order Correct > Present > Absent. Monotonic: an entry never
// downgrades, so a letter once Correct stays Correct.
func (k Keyboard) Update(guess string, fb Feedback) {
	for i := 0; i < len(guess) && i < len(fb); i++ {
		key := guess[i : i+1]
		if cur, ok := k[key]; !ok || fb[i] > cur {
			k[key] = fb[i]
		}
	}
}

func (k Keyboard) clone() Keyboard {
	out := make(Keyboard, len(k))
	for key, code := range k {
		out[key] = code
	}
	return out
}
