package naming

import (
	"strings"
	"time"
)

// Suffix is the artifact extension; keys always end with it.
const Suffix = ".tar.gz"

// stampLayout is ISO8601 UTC with millisecond precision. Colons and dots
// are replaced with dashes after formatting so keys stay safe as
// filenames and object keys while remaining lexically sortable.
const stampLayout = "2006-01-02T15:04:05.000Z"

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// Key derives the object key for a backup taken at t.
// Example: Key("backup", 2025-01-02T03:04:05.678Z) -> "backup-2025-01-02T03-04-05-678Z.tar.gz".
func Key(prefix string, t time.Time) string {
	return prefix + "-" + stampReplacer.Replace(t.UTC().Format(stampLayout)) + Suffix
}

// Time recovers the creation time embedded in a key produced by Key.
// Any leading subfolder segments are ignored. The second return is false
// for keys that do not carry the expected prefix and stamp shape.
func Time(prefix, key string) (time.Time, bool) {
	base := key
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}

	if !strings.HasPrefix(base, prefix+"-") || !strings.HasSuffix(base, Suffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, prefix+"-"), Suffix)

	// Undo the replacement positionally; every '-' past the date is a
	// former ':' or '.', so a plain reverse replace would corrupt the
	// date part.
	if len(stamp) != len(stampLayout) || stamp[10] != 'T' || stamp[len(stamp)-1] != 'Z' {
		return time.Time{}, false
	}
	iso := stamp[:11] + strings.ReplaceAll(stamp[11:19], "-", ":") + "." + stamp[20:23] + "Z"

	t, err := time.Parse(stampLayout, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
