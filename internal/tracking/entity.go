package tracking

// Field is one named value read off an entity.
type Field struct {
	Name  string
	Value Value
}

func NewField(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Entity is the capability a model needs to take part in change tracking.
// KeyFields returns the primary key; DataFields returns every other
// business field in a stable order. Stamp fields are never data fields.
type Entity interface {
	Tracked
	TableName() string
	KeyFields() []Field
	DataFields() []Field
}

// AuditRecord marks types that are themselves audit rows. They are stamped
// like any other entity but never diffed.
type AuditRecord interface {
	IsAuditRecord()
}

// IsAuditRecord reports whether e must be skipped by the diff engine.
func IsAuditRecord(e any) bool {
	_, ok := e.(AuditRecord)
	return ok
}

// Snapshot copies the data fields of e as they are right now.
func Snapshot(e Entity) []Field {
	fields := e.DataFields()
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

func fieldValues(fields []Field) Values {
	if len(fields) == 0 {
		return nil
	}
	out := make(Values, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}
