package store

// Todo is a single item on the list. ID is assigned by the store on insert.
type Todo struct {
	ID    string
	Title string
}
