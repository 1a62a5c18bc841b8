package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// documentDoc is the Firestore document representation of model.Document.
// Content stays under model.InlineContentLimit, which fits the Firestore
// document size cap; larger payloads live in the archive via ContentRef.
type documentDoc struct {
	ID             string             `firestore:"ID"`
	Name           string             `firestore:"Name"`
	Format         string             `firestore:"Format"`
	Content        []byte             `firestore:"Content,omitempty"`
	ContentRef     string             `firestore:"ContentRef,omitempty"`
	Size           int64              `firestore:"Size"`
	Classification *classificationDoc `firestore:"Classification,omitempty"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
}

type classificationDoc struct {
	Format     string    `firestore:"Format"`
	Intent     string    `firestore:"Intent"`
	Confidence float64   `firestore:"Confidence"`
	Model      string    `firestore:"Model"`
	CreatedAt  time.Time `firestore:"CreatedAt"`
}

func toClassificationDoc(c *model.Classification) *classificationDoc {
	if c == nil {
		return nil
	}
	return &classificationDoc{
		Format:     c.Format.String(),
		Intent:     c.Intent.String(),
		Confidence: c.Confidence,
		Model:      c.Model,
		CreatedAt:  c.CreatedAt,
	}
}

func fromClassificationDoc(d *classificationDoc) *model.Classification {
	if d == nil {
		return nil
	}
	return &model.Classification{
		Format:     types.Format(d.Format),
		Intent:     types.IntentID(d.Intent),
		Confidence: d.Confidence,
		Model:      d.Model,
		CreatedAt:  d.CreatedAt,
	}
}

func toDocumentDoc(doc *model.Document) *documentDoc {
	return &documentDoc{
		ID:             string(doc.ID),
		Name:           doc.Name,
		Format:         doc.Format.String(),
		Content:        doc.Content,
		ContentRef:     doc.ContentRef,
		Size:           doc.Size,
		Classification: toClassificationDoc(doc.Classification),
		CreatedAt:      doc.CreatedAt,
	}
}

func fromDocumentDoc(d *documentDoc) *model.Document {
	return &model.Document{
		ID:             model.DocumentID(d.ID),
		Name:           d.Name,
		Format:         types.Format(d.Format),
		Content:        d.Content,
		ContentRef:     d.ContentRef,
		Size:           d.Size,
		Classification: fromClassificationDoc(d.Classification),
		CreatedAt:      d.CreatedAt,
	}
}

type documentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDocumentRepository(client *firestore.Client) *documentRepository {
	return &documentRepository{client: client}
}

func (r *documentRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_documents"
	}
	return "documents"
}

func (r *documentRepository) Put(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		return goerr.New("document ID is required")
	}

	_, err := r.client.Collection(r.collection()).Doc(string(doc.ID)).Set(ctx, toDocumentDoc(doc))
	if err != nil {
		return goerr.Wrap(err, "failed to put document", goerr.V("id", doc.ID))
	}

	return nil
}

func (r *documentRepository) Get(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("id", id))
	}

	var d documentDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document", goerr.V("id", id))
	}

	return fromDocumentDoc(&d), nil
}
