package tracking

// Entry is one entity taking part in a unit-of-work. Original holds the
// data fields captured when the entity was loaded or attached.
type Entry struct {
	Entity   Entity
	State    State
	Original []Field
}

// ChangeRecord is the in-memory diff of one entity for one unit-of-work.
// OldValues is nil for CREATED, NewValues is nil for DELETED.
type ChangeRecord struct {
	TableName     string
	Action        Action
	KeyValues     Values
	OldValues     Values
	NewValues     Values
	ChangedFields []string
}

// IsNoop reports an update that changed nothing. The sink skips these.
func (r ChangeRecord) IsNoop() bool {
	return r.Action == ActionUpdated && len(r.ChangedFields) == 0
}

// FieldChange is a single differing field.
type FieldChange struct {
	Name string
	Old  Value
	New  Value
}

// Diff compares two field lists by name and returns the fields whose values
// differ, in the order they appear in current. A field missing on one side
// counts as null there, so null against missing is not a change.
func Diff(original, current []Field) []FieldChange {
	before := make(map[string]Value, len(original))
	for _, f := range original {
		before[f.Name] = f.Value
	}

	var changes []FieldChange
	seen := make(map[string]struct{}, len(current))
	for _, f := range current {
		seen[f.Name] = struct{}{}
		old := before[f.Name]
		if !old.Equal(f.Value) {
			changes = append(changes, FieldChange{Name: f.Name, Old: old, New: f.Value})
		}
	}
	for _, f := range original {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		if !f.Value.IsNull() {
			changes = append(changes, FieldChange{Name: f.Name, Old: f.Value, New: Null()})
		}
	}
	return changes
}

// BuildChangeRecords turns the dirty entries of a unit-of-work into change
// records, one per entry and in entry order. Unchanged and detached entries
// are skipped, as is anything that is itself an audit record.
func BuildChangeRecords(entries []Entry) []ChangeRecord {
	records := make([]ChangeRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.Entity == nil || IsAuditRecord(entry.Entity) {
			continue
		}
		action, ok := ActionFor(entry.State)
		if !ok {
			continue
		}
		rec := ChangeRecord{
			TableName: entry.Entity.TableName(),
			Action:    action,
			KeyValues: fieldValues(entry.Entity.KeyFields()),
		}

		switch entry.State {
		case Added:
			fields := entry.Entity.DataFields()
			rec.NewValues = fieldValues(fields)
			rec.ChangedFields = names(fields)
		case Deleted:
			fields := entry.Original
			if fields == nil {
				fields = entry.Entity.DataFields()
			}
			rec.OldValues = fieldValues(fields)
			rec.ChangedFields = names(fields)
		case Modified:
			changes := Diff(entry.Original, entry.Entity.DataFields())
			if len(changes) > 0 {
				rec.OldValues = make(Values, len(changes))
				rec.NewValues = make(Values, len(changes))
			}
			rec.ChangedFields = make([]string, 0, len(changes))
			for _, c := range changes {
				rec.OldValues[c.Name] = c.Old
				rec.NewValues[c.Name] = c.New
				rec.ChangedFields = append(rec.ChangedFields, c.Name)
			}
		}
		records = append(records, rec)
	}
	return records
}

func names(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}
