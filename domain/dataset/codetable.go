package dataset

// CodeTable maps the observed values of one nominal column to dense codes.
// Codes start at 0 and follow first-seen order.
type CodeTable struct {
	Column  string         `json:"column"`
	Symbols []string       `json:"symbols"`
	codes   map[string]int
}

// BuildCodeTable learns a code table from values in one left-to-right pass
func BuildCodeTable(column string, values []string) CodeTable {
	t := CodeTable{Column: column, codes: make(map[string]int)}
	for _, v := range values {
		if _, ok := t.codes[v]; !ok {
			t.codes[v] = len(t.Symbols)
			t.Symbols = append(t.Symbols, v)
		}
	}
	return t
}

// Code returns the code of v; ok is false for values not seen while building
func (t *CodeTable) Code(v string) (code int, ok bool) {
	if t.codes == nil {
		// decoded from JSON: fall back to a scan rather than mutating t
		for i, s := range t.Symbols {
			if s == v {
				return i, true
			}
		}
		return 0, false
	}
	code, ok = t.codes[v]
	return code, ok
}

// Size returns the number of distinct values
func (t *CodeTable) Size() int {
	return len(t.Symbols)
}

// Clone returns an independent copy
func (t *CodeTable) Clone() CodeTable {
	out := CodeTable{Column: t.Column, Symbols: append([]string(nil), t.Symbols...)}
	out.reindex()
	return out
}

// reindex rebuilds the lookup map from Symbols
func (t *CodeTable) reindex() {
	t.codes = make(map[string]int, len(t.Symbols))
	for i, s := range t.Symbols {
		t.codes[s] = i
	}
}
