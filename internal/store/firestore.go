package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore keeps snapshots as documents of one collection
type Firestore struct {
	client     *firestore.Client
	collection string
}

type snapshotDoc struct {
	Payload   string    `firestore:"payload"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// NewFirestore creates a Firestore backend for projectID.
func NewFirestore(ctx context.Context, projectID, collection string) (*Firestore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}
	if collection == "" {
		collection = "snapshots"
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Firestore{client: client, collection: collection}, nil
}

func (s *Firestore) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(key)
}

func (s *Firestore) Load(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot doc: %w", err)
	}

	var d snapshotDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode snapshot doc: %w", err)
	}
	return []byte(d.Payload), nil
}

func (s *Firestore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.doc(key).Set(ctx, snapshotDoc{
		Payload:   string(data),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("set snapshot doc: %w", err)
	}
	return nil
}

func (s *Firestore) Close() error {
	return s.client.Close()
}
