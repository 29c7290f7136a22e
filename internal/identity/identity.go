// Package identity computes date codes and the composite client, project,
// and log identifiers. All functions are pure: time and randomness are
// supplied by the caller.
package identity

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// logSuffixLen is the number of random characters appended to a log id.
const logSuffixLen = 3

// Digit36 returns the single base-36 digit for n (0–35).
func Digit36(n int) (byte, error) {
	if n < 0 || n >= len(digits) {
		return 0, fmt.Errorf("identity: base-36 digit out of range: %d", n)
	}
	return digits[n], nil
}

// DateCode encodes now as <year%100 base36><month base36><day 2-digit>.
// 2025-12-03 encodes as "PC03".
func DateCode(now time.Time) string {
	y := digits[now.Year()%100]
	m := digits[int(now.Month())]
	return fmt.Sprintf("%c%c%02d", y, m, now.Day())
}

// ProjectID builds <DateCode>-<clientID>-<typeLetter><counter> where the
// counter is one past the number of existing ids sharing the exact
// date-code/client prefix. Counters are decimal and assumed single-digit;
// overflow reports true and the id is produced anyway, leaving the
// operator to accept the lexical ambiguity.
func ProjectID(clientID string, existing []string, typeLetter string, now time.Time) (id string, overflow bool) {
	prefix := DateCode(now) + "-" + clientID + "-"
	count := 0
	for _, pid := range existing {
		if strings.HasPrefix(pid, prefix) {
			count++
		}
	}
	counter := count + 1
	return fmt.Sprintf("%s%s%d", prefix, strings.ToUpper(typeLetter), counter), counter > 9
}

// LogID builds <YYMMDD-HHMMSS>-<3 chars A–Z0–9>. The timestamp plus the
// random suffix make collisions within a project practically impossible.
func LogID(now time.Time, rnd *rand.Rand) string {
	var b strings.Builder
	b.WriteString(now.Format("060102-150405"))
	b.WriteByte('-')
	for i := 0; i < logSuffixLen; i++ {
		b.WriteByte(digits[rnd.Intn(len(digits))])
	}
	return b.String()
}

// SuggestClientID derives a short uppercase id from a client name: a
// single-word name yields its first three characters; a multi-word name
// yields the first letter of the first word plus the first and last
// letter of the last word. Names shorter than three characters are padded
// with 'X' so the suggestion always satisfies the minimum id length.
// Collisions get an incrementing decimal suffix.
func SuggestClientID(name string, existing map[string]struct{}) string {
	parts := strings.Fields(strings.TrimSpace(name))
	var base string
	switch {
	case len(parts) == 0:
		base = "CLT"
	case len(parts) == 1:
		w := parts[0]
		if len(w) > 3 {
			w = w[:3]
		}
		base = strings.ToUpper(w)
	default:
		first := parts[0]
		last := parts[len(parts)-1]
		base = strings.ToUpper(string(first[0]) + string(last[0]) + string(last[len(last)-1]))
	}
	for len(base) < 3 {
		base += "X"
	}

	suggestion := base
	for counter := 1; ; counter++ {
		if _, taken := existing[suggestion]; !taken {
			return suggestion
		}
		suggestion = fmt.Sprintf("%s%d", base, counter)
	}
}
