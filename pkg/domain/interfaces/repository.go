package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Document() DocumentRepository
	Record() RecordRepository
	Field() FieldRepository

	// Close releases underlying connections
	Close() error
}
