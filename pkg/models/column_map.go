package models

// ColumnRef pairs a column title with its store identifier.
type ColumnRef struct {
	Title string
	ID    int64
}

// ColumnMap is an ordered title -> id mapping, rebuilt from the store on every
// synchronization. A repeated title keeps its first position and the id of its
// last occurrence.
type ColumnMap []ColumnRef

func NewColumnMap(cols []Column) ColumnMap {
	out := make(ColumnMap, 0, len(cols))
	pos := make(map[string]int, len(cols))
	for _, c := range cols {
		if i, ok := pos[c.Title]; ok {
			out[i].ID = c.ID
			continue
		}
		pos[c.Title] = len(out)
		out = append(out, ColumnRef{Title: c.Title, ID: c.ID})
	}
	return out
}

// Lookup returns the id for title.
func (m ColumnMap) Lookup(title string) (int64, bool) {
	for _, ref := range m {
		if ref.Title == title {
			return ref.ID, true
		}
	}
	return 0, false
}
