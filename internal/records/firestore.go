package records

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"docsplit/pkg/contracts/domain"
)

// DefaultDocumentsCollection is the Firestore collection holding document
// records unless configured otherwise.
const DefaultDocumentsCollection = "documents"

// FirestoreStore persists document records in a Firestore collection keyed
// by the deterministic record id, making Upsert naturally idempotent under
// job redelivery.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps an existing Firestore client.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultDocumentsCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) Upsert(ctx context.Context, record *domain.DocumentRecord) error {
	_, err := s.client.Collection(s.collection).Doc(record.ID).Set(ctx, record)
	if err != nil {
		return fmt.Errorf("upsert document record %s: %w", record.ID, err)
	}
	return nil
}

func (s *FirestoreStore) ListByOperation(ctx context.Context, operationID string) ([]*domain.DocumentRecord, error) {
	q := s.client.Collection(s.collection).
		Where("operationId", "==", operationID).
		OrderBy("documentNumber", firestore.Asc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*domain.DocumentRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list document records: %w", err)
		}

		var record domain.DocumentRecord
		if err := snap.DataTo(&record); err != nil {
			return nil, fmt.Errorf("decode document record %s: %w", snap.Ref.ID, err)
		}
		result = append(result, &record)
	}

	return result, nil
}
