package core

// DBOrdering is a storage-agnostic ordering clause. Repositories translate
// it into SQL or apply it in memory.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
