package fnboot

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// Lifetime specifies how many instances of a service are created and how long
// each one lives.
type Lifetime int

const (
	// Singleton specifies that a single instance of the service is created on
	// first resolution and cached for the lifetime of the container.
	Singleton Lifetime = iota

	// Transient specifies that a new instance is created on every resolution.
	Transient

	// Scoped specifies that one instance is created per scope. Within a function
	// host this means one instance per invocation. Scoped instances are disposed
	// when their scope is disposed.
	Scoped
)

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	case Scoped:
		return "Scoped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid reports whether the lifetime is one of Singleton, Transient or Scoped.
func (l Lifetime) IsValid() bool {
	return l >= Singleton && l <= Scoped
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, LifetimeError{Value: int(l)}
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Singleton", "singleton":
		*l = Singleton
	case "Transient", "transient":
		*l = Transient
	case "Scoped", "scoped":
		*l = Scoped
	default:
		return LifetimeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}
