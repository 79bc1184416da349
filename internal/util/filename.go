package util

import "strings"

var filenameReplacer = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "", "/", "", `\`, "", "|", "", "?", "", "*", "",
	" ", "_",
)

// SanitizeFilename drops characters most file systems reject and turns spaces
// into underscores. Length and Unicode form are left alone.
func SanitizeFilename(title string) string {
	return filenameReplacer.Replace(title)
}
