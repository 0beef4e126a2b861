package model

type indexerImplementation struct {
	rooms    map[string]int
	students map[string]int
	classes  map[string]int
}

func (indexer *indexerImplementation) Room(room string) (int, bool) {
	index, ok := indexer.rooms[room]
	return index, ok
}

func (indexer *indexerImplementation) Student(student string) (int, bool) {
	index, ok := indexer.students[student]
	return index, ok
}

func (indexer *indexerImplementation) Class(class string) (int, bool) {
	index, ok := indexer.classes[class]
	return index, ok
}

func (indexer *indexerImplementation) Sizes() (rooms, students, classes int) {
	return len(indexer.rooms), len(indexer.students), len(indexer.classes)
}

func (indexer *indexerImplementation) add(indices map[string]int, id string) {
	if _, ok := indices[id]; !ok {
		indices[id] = len(indices)
	}
}
