package domain

import (
	"fmt"
	"strings"
)

// Annotation is one user-defined key/value attached to an item, e.g.
// "Director" -> "Jane Doe", with a flag controlling public visibility.
type Annotation struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Visible bool   `json:"visible"`
}

// Annotations is an ordered set of annotations with unique keys.
type Annotations []Annotation

func (a Annotations) index(key string) int {
	for i := range a {
		if a[i].Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (a Annotations) Get(key string) (string, bool) {
	if i := a.index(key); i >= 0 {
		return a[i].Value, true
	}
	return "", false
}

// Set updates key in place or appends it as a visible entry.
func (a Annotations) Set(key, value string) Annotations {
	if i := a.index(key); i >= 0 {
		out := append(Annotations(nil), a...)
		out[i].Value = value
		return out
	}
	return append(append(Annotations(nil), a...), Annotation{Key: key, Value: value, Visible: true})
}

// SetVisible toggles the visibility of key. Unknown keys are ignored.
func (a Annotations) SetVisible(key string, visible bool) Annotations {
	i := a.index(key)
	if i < 0 {
		return a
	}
	out := append(Annotations(nil), a...)
	out[i].Visible = visible
	return out
}

// Delete removes key, keeping the order of the rest.
func (a Annotations) Delete(key string) Annotations {
	i := a.index(key)
	if i < 0 {
		return a
	}
	out := make(Annotations, 0, len(a)-1)
	out = append(out, a[:i]...)
	return append(out, a[i+1:]...)
}

// Visible returns only the entries flagged visible, in order.
func (a Annotations) Visible() Annotations {
	var out Annotations
	for _, entry := range a {
		if entry.Visible {
			out = append(out, entry)
		}
	}
	return out
}

// Validate checks keys are non-empty and unique.
func (a Annotations) Validate() error {
	seen := make(map[string]struct{}, len(a))
	for _, entry := range a {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			return fmt.Errorf("annotation key must not be empty")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate annotation key %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
