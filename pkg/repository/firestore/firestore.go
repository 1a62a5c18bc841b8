package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/doctriage-lab/grammateus/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Firestore is the Firestore-backed Repository
type Firestore struct {
	client   *firestore.Client
	document *documentRepository
	record   *recordRepository
	field    *fieldRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes all collection names, used to isolate test
// runs sharing one database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.document.collectionPrefix = prefix
		f.record.collectionPrefix = prefix
		f.field.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:   client,
		document: newDocumentRepository(client),
		record:   newRecordRepository(client),
		field:    newFieldRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Document() interfaces.DocumentRepository {
	return f.document
}

func (f *Firestore) Record() interfaces.RecordRepository {
	return f.record
}

func (f *Firestore) Field() interfaces.FieldRepository {
	return f.field
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
