// Package payload reads loosely shaped JSON from the polled services.
//
// Every accessor falls back to a named default when the field is missing,
// null, or falsy (false, 0, ""), so a partial payload never fails a poll.
// Only a body that is not JSON at all is an error.
package payload

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	DefaultFloat  float64 = 0
	DefaultInt    int     = 0
	DefaultBool           = false
	DefaultString         = ""
)

var ErrInvalidJSON = errors.New("invalid json payload")

type Document struct {
	root gjson.Result
}

func Parse(body []byte) (Document, error) {
	if !gjson.ValidBytes(body) {
		return Document{}, fmt.Errorf("%w: %d bytes", ErrInvalidJSON, len(body))
	}

	root := gjson.ParseBytes(body)
	if root.Type == gjson.Null {
		return Document{}, fmt.Errorf("%w: null body", ErrInvalidJSON)
	}

	return Document{root: root}, nil
}

// Raw returns the JSON text of the document.
func (d Document) Raw() string {
	return d.root.Raw
}

func (d Document) Has(key string) bool {
	return d.root.Get(key).Exists()
}

func (d Document) Float(key string) float64 {
	r := d.root.Get(key)
	if !truthy(r) {
		return DefaultFloat
	}

	return r.Float()
}

// Int reads a numeric field as an integer. Fractions are truncated toward
// zero, so 2.7 reads as 2 and -2.7 as -2.
func (d Document) Int(key string) int {
	r := d.root.Get(key)
	if !truthy(r) {
		return DefaultInt
	}

	return int(r.Int())
}

func (d Document) Bool(key string) bool {
	return truthy(d.root.Get(key))
}

func (d Document) String(key string) string {
	r := d.root.Get(key)
	if !truthy(r) {
		return DefaultString
	}

	return r.String()
}

// OptString returns nil unless the field holds a non-empty value.
func (d Document) OptString(key string) *string {
	r := d.root.Get(key)
	if !truthy(r) {
		return nil
	}

	value := r.String()
	return &value
}

// OptFloat returns nil unless the field holds a non-zero value.
func (d Document) OptFloat(key string) *float64 {
	r := d.root.Get(key)
	if !truthy(r) {
		return nil
	}

	value := r.Float()
	return &value
}

// Strings returns the string items of an array field; never nil.
func (d Document) Strings(key string) []string {
	r := d.root.Get(key)
	if !r.IsArray() {
		return []string{}
	}

	items := r.Array()
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.String())
	}

	return result
}

// FloatMap returns the numeric members of an object field; never nil.
func (d Document) FloatMap(key string) map[string]float64 {
	r := d.root.Get(key)
	result := make(map[string]float64)
	if !r.IsObject() {
		return result
	}

	r.ForEach(func(k, v gjson.Result) bool {
		result[k.String()] = v.Float()
		return true
	})

	return result
}

// Object returns the nested object at key and whether it is present and truthy.
func (d Document) Object(key string) (Document, bool) {
	r := d.root.Get(key)
	if !r.IsObject() {
		return Document{}, false
	}

	return Document{root: r}, true
}

// Objects returns the object items of an array field; never nil.
func (d Document) Objects(key string) []Document {
	r := d.root.Get(key)
	if !r.IsArray() {
		return []Document{}
	}

	items := r.Array()
	result := make([]Document, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			result = append(result, Document{root: item})
		}
	}

	return result
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return r.Exists()
	}
}
