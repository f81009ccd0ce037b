package storer

type Record struct {
	Id      string
	Payload map[string]any
	Vector  []float32
	Score   float32
}

type Collection struct {
	Name      string
	Dimension int
	Points    uint64
}
