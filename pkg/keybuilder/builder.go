package keybuilder

import (
	"fmt"
)

const (
	Template string = "template"
)

// TemplateKeyBuild returns the storage key of a template identifier.
func TemplateKeyBuild(id string) string {
	return fmt.Sprintf("%s:%s", Template, id)
}
