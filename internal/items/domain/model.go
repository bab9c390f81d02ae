package domain

// Item is a single todo entry. ID is assigned by the persistence layer.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// ItemInput is the request body for creating and updating items.
type ItemInput struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}
