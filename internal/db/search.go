package db

// KNNQuery is the input for vector similarity search.
//
// K is the number of neighbours returned; EFRuntime is the HNSW candidate list
// examined before truncating to K. Zero EFRuntime leaves the index default.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	EFRuntime    int
	ReturnFields []string
}

// SearchResult is the output of a search operation. Entries are ordered by
// ascending distance (most similar first).
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Distance is the raw __vector_score of the index metric.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
