package core

import (
	"strconv"
	"strings"
)

// NextName returns the first "prefix N" not taken. A trailing " N" already on
// prefix is stripped and N becomes the starting point; otherwise probing starts
// at 1.
func NextName(prefix string, taken func(string) bool) string {
	n := 1
	if i := strings.LastIndex(prefix, " "); i >= 0 {
		if v, err := strconv.Atoi(prefix[i+1:]); err == nil {
			n = v
			prefix = prefix[:i]
		}
	}
	name := prefix + " " + strconv.Itoa(n)
	for taken(name) {
		n++
		name = prefix + " " + strconv.Itoa(n)
	}
	return name
}
