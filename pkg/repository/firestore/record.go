package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordDoc struct {
	ID             int64             `firestore:"ID"`
	DocumentID     string            `firestore:"DocumentID"`
	Classification classificationDoc `firestore:"Classification"`
	Result         *resultDoc        `firestore:"Result,omitempty"`
	CreatedAt      time.Time         `firestore:"CreatedAt"`
}

type resultDoc struct {
	Format        string            `firestore:"Format"`
	Intent        string            `firestore:"Intent"`
	Fields        map[string]string `firestore:"Fields,omitempty"`
	Valid         *bool             `firestore:"Valid,omitempty"`
	MissingFields []string          `firestore:"MissingFields,omitempty"`
	SchemaErrors  []string          `firestore:"SchemaErrors,omitempty"`
	Summary       string            `firestore:"Summary,omitempty"`
	Method        string            `firestore:"Method"`
	CompletedAt   time.Time         `firestore:"CompletedAt"`
}

func toResultDoc(result *model.ExtractionResult) *resultDoc {
	if result == nil {
		return nil
	}
	return &resultDoc{
		Format:        result.Format.String(),
		Intent:        result.Intent.String(),
		Fields:        result.Fields,
		Valid:         result.Valid,
		MissingFields: result.MissingFields,
		SchemaErrors:  result.SchemaErrors,
		Summary:       result.Summary,
		Method:        string(result.Method),
		CompletedAt:   result.CompletedAt,
	}
}

func fromResultDoc(d *resultDoc) *model.ExtractionResult {
	if d == nil {
		return nil
	}
	return &model.ExtractionResult{
		Format:        types.Format(d.Format),
		Intent:        types.IntentID(d.Intent),
		Fields:        d.Fields,
		Valid:         d.Valid,
		MissingFields: d.MissingFields,
		SchemaErrors:  d.SchemaErrors,
		Summary:       d.Summary,
		Method:        model.ExtractionMethod(d.Method),
		CompletedAt:   d.CompletedAt,
	}
}

func toRecordDoc(record *model.Record) *recordDoc {
	return &recordDoc{
		ID:             record.ID,
		DocumentID:     string(record.DocumentID),
		Classification: *toClassificationDoc(&record.Classification),
		Result:         toResultDoc(record.Result),
		CreatedAt:      record.CreatedAt,
	}
}

func fromRecordDoc(d *recordDoc) *model.Record {
	return &model.Record{
		ID:             d.ID,
		DocumentID:     model.DocumentID(d.DocumentID),
		Classification: *fromClassificationDoc(&d.Classification),
		Result:         fromResultDoc(d.Result),
		CreatedAt:      d.CreatedAt,
	}
}

type recordRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRecordRepository(client *firestore.Client) *recordRepository {
	return &recordRepository{client: client}
}

func (r *recordRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_records"
	}
	return "records"
}

func (r *recordRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *recordRepository) counterDoc() string {
	return "record_counter"
}

func (r *recordRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.counterCollection()).Doc(r.counterDoc())

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return nextID, nil
}

func (r *recordRepository) Append(ctx context.Context, record *model.Record) (*model.Record, error) {
	nextID, err := r.getNextID(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	created := &model.Record{
		ID:             nextID,
		DocumentID:     record.DocumentID,
		Classification: record.Classification,
		Result:         record.Result,
		CreatedAt:      time.Now().UTC(),
	}

	docID := fmt.Sprintf("%d", created.ID)
	if _, err := r.client.Collection(r.collection()).Doc(docID).Set(ctx, toRecordDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to append record", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *recordRepository) AttachResult(ctx context.Context, id int64, result *model.ExtractionResult) (*model.Record, error) {
	if result == nil {
		return nil, goerr.New("extraction result is required", goerr.V("id", id))
	}

	docRef := r.client.Collection(r.collection()).Doc(fmt.Sprintf("%d", id))

	var updated recordDoc
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "record not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get record", goerr.V("id", id))
		}

		var d recordDoc
		if err := docSnap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode record", goerr.V("id", id))
		}
		if d.Result != nil {
			return goerr.Wrap(ErrResultExists, "record already has a result", goerr.V("id", id))
		}

		d.Result = toResultDoc(result)
		updated = d
		return tx.Set(docRef, &d)
	})
	if err != nil {
		return nil, err
	}

	return fromRecordDoc(&updated), nil
}

func (r *recordRepository) Get(ctx context.Context, id int64) (*model.Record, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(fmt.Sprintf("%d", id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "record not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get record", goerr.V("id", id))
	}

	var d recordDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode record", goerr.V("id", id))
	}

	return fromRecordDoc(&d), nil
}

func (r *recordRepository) GetByDocumentID(ctx context.Context, docID model.DocumentID) (*model.Record, error) {
	iter := r.client.Collection(r.collection()).
		Where("DocumentID", "==", string(docID)).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "record not found", goerr.V("documentID", docID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query record", goerr.V("documentID", docID))
	}

	var d recordDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode record", goerr.V("documentID", docID))
	}

	return fromRecordDoc(&d), nil
}

func (r *recordRepository) List(ctx context.Context, limit int) ([]*model.Record, error) {
	query := r.client.Collection(r.collection()).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	records := make([]*model.Record, 0, limit)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate records")
		}

		var d recordDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode record", goerr.V("doc_id", docSnap.Ref.ID))
		}

		records = append(records, fromRecordDoc(&d))
	}

	return records, nil
}
