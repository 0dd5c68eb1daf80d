package pocketbase

import "strings"

// Record is a PocketBase record as returned by the records API.
type Record map[string]any

func (r Record) ID() string       { return r.String("id") }
func (r Record) Email() string    { return r.String("email") }
func (r Record) Username() string { return r.String("username") }
func (r Record) Role() string     { return r.String("role") }

func (r Record) IsGodMode() bool {
	v, _ := r["isGodMode"].(bool)
	return v
}

func (r Record) String(key string) string {
	v, _ := r[key].(string)
	return v
}

// EqualsFilter builds an exact-match filter expression such as email="a@x.com".
func EqualsFilter(field, value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return field + `="` + escaped + `"`
}
