package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Class is one of the four fixed character archetypes.
type Class string

const (
	ClassWarrior Class = "warrior"
	ClassMage    Class = "mage"
	ClassRogue   Class = "rogue"
	ClassCleric  Class = "cleric"
)

// Classes lists every playable class in display order.
var Classes = []Class{ClassWarrior, ClassMage, ClassRogue, ClassCleric}

// ParseClass normalises s and reports whether it names a known class.
func ParseClass(s string) (Class, error) {
	c := Class(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Classes {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown class %q", s)
}

// ClassList is a set of classes persisted as a JSON array.
type ClassList []Class

// Contains reports whether c is in the list.
func (l ClassList) Contains(c Class) bool {
	for _, x := range l {
		if x == c {
			return true
		}
	}
	return false
}

func (l ClassList) Value() (driver.Value, error) {
	return marshalList(l)
}

func (l *ClassList) Scan(src any) error {
	return unmarshalList(src, l)
}

// StringList is a list of strings persisted as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return marshalList(l)
}

func (l *StringList) Scan(src any) error {
	return unmarshalList(src, l)
}

func marshalList(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalList(src any, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	default:
		return fmt.Errorf("cannot scan %T into list", src)
	}
}
