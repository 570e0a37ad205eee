package operations

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultOperationsCollection is the Firestore collection holding operation
// records unless configured otherwise.
const DefaultOperationsCollection = "operations"

// FirestoreStore persists Operation records in a Firestore collection, one
// document per operation keyed by the operation id.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps an existing Firestore client.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultOperationsCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) Create(ctx context.Context, op *Operation) error {
	_, err := s.client.Collection(s.collection).Doc(op.ID).Create(ctx, op)
	if status.Code(err) == codes.AlreadyExists {
		return ErrOperationExists
	}
	if err != nil {
		return fmt.Errorf("create operation %s: %w", op.ID, err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*Operation, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrOperationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operation %s: %w", id, err)
	}

	var op Operation
	if err := snap.DataTo(&op); err != nil {
		return nil, fmt.Errorf("decode operation %s: %w", id, err)
	}
	return &op, nil
}

// Update replaces the document wholesale. Set without merge options is a
// full overwrite, matching the last-writer-wins contract.
func (s *FirestoreStore) Update(ctx context.Context, op *Operation) error {
	_, err := s.client.Collection(s.collection).Doc(op.ID).Set(ctx, op)
	if err != nil {
		return fmt.Errorf("update operation %s: %w", op.ID, err)
	}
	return nil
}

func (s *FirestoreStore) List(ctx context.Context, filter Filter) ([]*Operation, error) {
	q := s.client.Collection(s.collection).OrderBy("createdAt", firestore.Desc)
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*Operation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list operations: %w", err)
		}

		var op Operation
		if err := snap.DataTo(&op); err != nil {
			return nil, fmt.Errorf("decode operation %s: %w", snap.Ref.ID, err)
		}
		result = append(result, &op)
	}

	return result, nil
}
