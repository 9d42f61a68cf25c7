package resend

// logThrottle caps how often a repeating failure is logged. The first burst
// occurrences of the same failure are logged in full, then only every nth.
type logThrottle struct {
	burst int
	every int

	lastKey    string
	repeats    int
	suppressed int
}

func newLogThrottle(burst, every int) *logThrottle {
	if burst <= 0 {
		burst = 3
	}
	if every <= 0 {
		every = 10
	}
	return &logThrottle{burst: burst, every: every}
}

// allow records one occurrence of key. It reports whether to log it and how
// many occurrences were dropped since the last logged one.
func (t *logThrottle) allow(key string) (bool, int) {
	if key != t.lastKey {
		t.lastKey = key
		t.repeats = 0
		t.suppressed = 0
	}
	t.repeats++

	if t.repeats <= t.burst || (t.repeats-t.burst)%t.every == 0 {
		dropped := t.suppressed
		t.suppressed = 0
		return true, dropped
	}
	t.suppressed++
	return false, 0
}

// reset forgets the current failure streak.
func (t *logThrottle) reset() {
	t.lastKey = ""
	t.repeats = 0
	t.suppressed = 0
}

// streak returns how many times in a row the current key was seen.
func (t *logThrottle) streak() int {
	return t.repeats
}
