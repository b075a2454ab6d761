package transport

import "strings"

// fatalMarkers are substrings of Redis error replies that will not heal on
// retry: authentication and protocol-level rejections.
var fatalMarkers = []string{
	"NOAUTH",
	"WRONGPASS",
	"invalid password",
	"ERR Protocol error",
}

// IsFatal reports whether err is a terminal delivery error. Fatal errors are
// surfaced immediately without retrying; everything else (timeouts, resets,
// refused or dropped connections) is treated as transient.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
