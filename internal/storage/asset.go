package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/pixil98/go-errors"
)

// AssetVersion is the newest asset file layout this build reads and the
// one it writes.
const AssetVersion = 1

const maxIdentifierLength = 64

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

type ValidatingSpec interface {
	Validate() error
}

// Identifier keys a record. It doubles as the record's file name, so it is
// limited to letters, digits and hyphens.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Valid reports whether id is usable as a record key.
func (id Identifier) Valid() bool {
	return len(id) <= maxIdentifierLength && identifierPattern.MatchString(string(id))
}

// Asset is the on-disk envelope around a record.
type Asset[T ValidatingSpec] struct {
	Version    uint       `json:"version"`
	Identifier Identifier `json:"id"`
	Spec       T          `json:"spec"`
}

func (a *Asset[T]) Id() Identifier {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	switch {
	case a.Version == 0:
		el.Add(fmt.Errorf("version must be set"))
	case a.Version > AssetVersion:
		el.Add(fmt.Errorf("version %d is newer than supported version %d", a.Version, AssetVersion))
	}

	switch {
	case a.Identifier == "":
		el.Add(fmt.Errorf("id must be set"))
	case !a.Identifier.Valid():
		el.Add(fmt.Errorf("id %q must be alphanumeric and at most %d characters", a.Identifier, maxIdentifierLength))
	}

	if isNil(a.Spec) {
		el.Add(fmt.Errorf("spec must be set"))
	} else {
		el.Add(a.Spec.Validate())
	}

	return el.Err()
}

// SmartIdentifier is a reference to another stored record. It marshals as
// the bare key and is resolved against a Storer after loading.
type SmartIdentifier[T ValidatingSpec] struct {
	key Identifier
	val T
}

func NewSmartIdentifier[T ValidatingSpec](key Identifier) SmartIdentifier[T] {
	return SmartIdentifier[T]{key: key}
}

func (id *SmartIdentifier[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &id.key)
}

func (id SmartIdentifier[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.key)
}

func (id SmartIdentifier[T]) Validate() error {
	switch {
	case id.key == "":
		return fmt.Errorf("%s identifier is required", kindName[T]())
	case !id.key.Valid():
		return fmt.Errorf("%s identifier %q is malformed", kindName[T](), id.key)
	}
	return nil
}

// Resolve looks the key up in st. References are checked when assets load
// so a dangling exit fails startup, not play.
func (id *SmartIdentifier[T]) Resolve(st Storer[T]) error {
	id.val = st.Get(id.key)
	if isNil(id.val) {
		return fmt.Errorf("%s %q not found", kindName[T](), id.key)
	}
	return nil
}

// Id returns the referenced key.
func (id SmartIdentifier[T]) Id() Identifier {
	return id.key
}

// Get returns the resolved record, or the zero value before Resolve.
func (id SmartIdentifier[T]) Get() T {
	return id.val
}

// kindName is the record type's name, used in messages.
func kindName[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
