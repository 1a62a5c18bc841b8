package memory

import (
	"github.com/doctriage-lab/grammateus/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory Repository for development and tests
type Memory struct {
	document *documentRepository
	record   *recordRepository
	field    *fieldRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		document: newDocumentRepository(),
		record:   newRecordRepository(),
		field:    newFieldRepository(),
	}
}

func (m *Memory) Document() interfaces.DocumentRepository {
	return m.document
}

func (m *Memory) Record() interfaces.RecordRepository {
	return m.record
}

func (m *Memory) Field() interfaces.FieldRepository {
	return m.field
}

func (m *Memory) Close() error {
	return nil
}
