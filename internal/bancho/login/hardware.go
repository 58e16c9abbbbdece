package login

import "strings"

// ParseAdapters interprets the login blob's adapter string:
// "runningunderwine" sets the wine flag; otherwise it's a
// dot-separated MAC list with a trailing delimiter to strip. An empty
// MAC list while not running under wine is a malformed client and the
// second return value is false.
func ParseAdapters(adaptersStr string) (macs []string, wine bool, ok bool) {
	if adaptersStr == "runningunderwine" {
		return nil, true, true
	}

	trimmed := strings.TrimSuffix(adaptersStr, ".")
	var adapters []string
	for _, a := range strings.Split(trimmed, ".") {
		if a != "" {
			adapters = append(adapters, a)
		}
	}

	if len(adapters) == 0 {
		return nil, false, false
	}
	return adapters, false, true
}
