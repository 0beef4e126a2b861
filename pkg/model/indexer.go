package model

// indexer interface is design to give a dense index to every room, student and class of the input, so that the schedule state can be addressed by position instead of by identifier
type indexer interface {
	// Returns the index of the room and whether it exists
	Room(room string) (int, bool)
	// Returns the index of the student and whether it exists
	Student(student string) (int, bool)
	// Returns the index of the class and whether it exists
	Class(class string) (int, bool)
	// Returns the amount of rooms, students and classes respectively
	Sizes() (rooms, students, classes int)
}

func newIndexer(modelInput ModelInput) indexer {
	indexer := &indexerImplementation{
		rooms:    make(map[string]int, len(modelInput.Rooms)),
		students: make(map[string]int, len(modelInput.Students)),
		classes:  make(map[string]int, len(modelInput.Classes)),
	}

	for _, room := range modelInput.Rooms {
		indexer.add(indexer.rooms, room.Id)
	}
	for _, student := range modelInput.Students {
		indexer.add(indexer.students, student.Id)
	}
	for _, class := range modelInput.Classes {
		indexer.add(indexer.classes, class.Id)
		// Enrolled students are indexed even if they're absent from the students list
		for _, student := range class.Students {
			indexer.add(indexer.students, student)
		}
	}

	return indexer
}
