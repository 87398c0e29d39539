package types

import "encoding/json"

// Optional distinguishes a JSON field that was omitted from one that was
// explicitly set, including an explicit null. Partial updates rely on this:
// an absent field leaves the stored value untouched, an explicit null clears
// a nullable column.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON is only invoked when the key is present in the payload, so
// Set is true for both values and explicit nulls.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true

	if string(data) == "null" {
		o.Valid = false
		return nil
	}

	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}

	o.Valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
