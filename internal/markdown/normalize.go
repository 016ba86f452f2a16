// Package markdown limpia el texto de las respuestas antes de mostrarlo.
package markdown

import (
	"regexp"
	"strings"
)

var (
	headerMarker  = regexp.MustCompile(`(?m)^#+[ \t]*`)
	bulletMarker  = regexp.MustCompile(`(?m)^-[ \t]+`)
	extraNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normalize quita encabezados '#', separa los items '- ' con una linea en blanco,
// colapsa tres o mas saltos de linea en dos y quita un salto final.
// Se aplica al renderizar; el transcript guarda el texto original.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = headerMarker.ReplaceAllString(s, "")

	s = bulletMarker.ReplaceAllStringFunc(s, func(string) string { return "\x00" })
	s = strings.TrimPrefix(s, "\x00")
	s = strings.ReplaceAll(s, "\n\x00", "\n\n")

	s = extraNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSuffix(s, "\n")
}
