// internal/service/render.go
package service

import (
	"strings"
)

// RenderTemplate substitutes {{key}} tokens with their values. Rendering
// is literal substring substitution; unknown tokens are left in place.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}
