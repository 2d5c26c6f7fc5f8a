package record

import (
	"github.com/google/uuid"

	"github.com/sarychlabs/sarychdb/pkg/utils"
)

// Reserved metadata keys owned by the engine.
const (
	FieldID        = "_id"
	FieldCreatedAt = "_created_at"
	FieldUpdatedAt = "_updated_at"
)

// Record is a schemaless JSON document. The engine owns the reserved keys;
// every other key is a user field with an arbitrary JSON value.
type Record map[string]interface{}

// New creates a Record from user fields, assigning a fresh _id and
// _created_at. Reserved keys in the input are discarded; the caller never
// controls engine metadata.
func New(fields map[string]interface{}) Record {
	r := make(Record, len(fields)+2)
	for k, v := range fields {
		if IsReserved(k) {
			continue
		}
		r[k] = cloneValue(v)
	}
	r[FieldID] = uuid.New().String()
	r[FieldCreatedAt] = utils.NowRFC3339()
	return r
}

// IsReserved reports whether key is engine-owned metadata.
func IsReserved(key string) bool {
	return key == FieldID || key == FieldCreatedAt || key == FieldUpdatedAt
}

// ID returns the record identifier, or "" if unset.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// CreatedAt returns the creation timestamp, or "" if unset.
func (r Record) CreatedAt() string {
	ts, _ := r[FieldCreatedAt].(string)
	return ts
}

// UpdatedAt returns the last-update timestamp, or "" if the record has
// never been updated.
func (r Record) UpdatedAt() string {
	ts, _ := r[FieldUpdatedAt].(string)
	return ts
}

// ApplyPatch merges patch into the record: top-level keys overwrite, absent
// keys are preserved, reserved keys in the patch are ignored. _updated_at is
// refreshed unconditionally.
func (r Record) ApplyPatch(patch map[string]interface{}) {
	for k, v := range patch {
		if IsReserved(k) {
			continue
		}
		r[k] = cloneValue(v)
	}
	r[FieldUpdatedAt] = utils.NowRFC3339()
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// CloneSlice returns a deep copy of a record sequence, preserving order.
func CloneSlice(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, nested := range val {
			out[k] = cloneValue(nested)
		}
		return out
	case Record:
		out := make(map[string]interface{}, len(val))
		for k, nested := range val {
			out[k] = cloneValue(nested)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, nested := range val {
			out[i] = cloneValue(nested)
		}
		return out
	default:
		// Scalars (string, bool, nil, json.Number, numeric types) are
		// immutable as stored.
		return val
	}
}
