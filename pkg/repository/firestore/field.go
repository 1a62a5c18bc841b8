package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fieldDoc struct {
	DocumentID string    `firestore:"DocumentID"`
	Name       string    `firestore:"Name"`
	Value      string    `firestore:"Value"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

func toFieldDoc(field *model.Field) *fieldDoc {
	return &fieldDoc{
		DocumentID: string(field.DocumentID),
		Name:       field.Name,
		Value:      field.Value,
		UpdatedAt:  field.UpdatedAt,
	}
}

func fromFieldDoc(d *fieldDoc) *model.Field {
	return &model.Field{
		DocumentID: model.DocumentID(d.DocumentID),
		Name:       d.Name,
		Value:      d.Value,
		UpdatedAt:  d.UpdatedAt,
	}
}

type fieldRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newFieldRepository(client *firestore.Client) *fieldRepository {
	return &fieldRepository{client: client}
}

func (r *fieldRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_fields"
	}
	return "fields"
}

// docID builds a deterministic document ID so that re-extraction replaces
// the previous value for the same (document, name) pair
func (r *fieldRepository) docID(docID model.DocumentID, name string) string {
	return fmt.Sprintf("%s_%s", docID, name)
}

func (r *fieldRepository) Upsert(ctx context.Context, field *model.Field) error {
	if field.DocumentID == "" {
		return goerr.New("document ID is required")
	}
	if field.Name == "" {
		return goerr.New("field name is required", goerr.V("documentID", field.DocumentID))
	}

	stored := *field
	stored.UpdatedAt = time.Now().UTC()

	ref := r.client.Collection(r.collection()).Doc(r.docID(field.DocumentID, field.Name))
	if _, err := ref.Set(ctx, toFieldDoc(&stored)); err != nil {
		return goerr.Wrap(err, "failed to upsert field",
			goerr.V("documentID", field.DocumentID), goerr.V("name", field.Name))
	}

	return nil
}

func (r *fieldRepository) Get(ctx context.Context, docID model.DocumentID, name string) (*model.Field, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(r.docID(docID, name)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "field not found",
				goerr.V("documentID", docID), goerr.V("name", name))
		}
		return nil, goerr.Wrap(err, "failed to get field",
			goerr.V("documentID", docID), goerr.V("name", name))
	}

	var d fieldDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode field",
			goerr.V("documentID", docID), goerr.V("name", name))
	}

	return fromFieldDoc(&d), nil
}

func (r *fieldRepository) List(ctx context.Context, docID model.DocumentID) ([]*model.Field, error) {
	iter := r.client.Collection(r.collection()).
		Where("DocumentID", "==", string(docID)).
		OrderBy("Name", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	fields := make([]*model.Field, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate fields", goerr.V("documentID", docID))
		}

		var d fieldDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode field", goerr.V("doc_id", docSnap.Ref.ID))
		}

		fields = append(fields, fromFieldDoc(&d))
	}

	return fields, nil
}
