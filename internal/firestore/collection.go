// Package firestore is the record store backend for Cloud Firestore.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
)

type ToFirestoreFunc[T any] func(*T) map[string]interface{}
type FromFirestoreFunc[T any] func(id string, data map[string]interface{}) *T

// Collection is a typed view over a Firestore collection
type Collection[T any] struct {
	Ref           *firestore.CollectionRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (c *Collection[T]) Doc(id string) *DocumentRef[T] {
	return &DocumentRef[T]{
		Ref:           c.Ref.Doc(id),
		ToFirestore:   c.ToFirestore,
		FromFirestore: c.FromFirestore,
	}
}

// All runs q and converts every matching document
func (c *Collection[T]) All(ctx context.Context, q firestore.Query) ([]*T, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, c.FromFirestore(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

type DocumentRef[T any] struct {
	Ref           *firestore.DocumentRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (d *DocumentRef[T]) ID() string {
	return d.Ref.ID
}

func (d *DocumentRef[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.Ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	return d.FromFirestore(snap.Ref.ID, snap.Data()), nil
}

// Create writes data and fails with codes.AlreadyExists when the document exists
func (d *DocumentRef[T]) Create(ctx context.Context, data *T) error {
	_, err := d.Ref.Create(ctx, d.ToFirestore(data))
	return err
}

// Update changes the given fields and fails with codes.NotFound when the document is missing
func (d *DocumentRef[T]) Update(ctx context.Context, updates map[string]interface{}) error {
	fields := make([]firestore.Update, 0, len(updates))
	for path, value := range updates {
		fields = append(fields, firestore.Update{Path: path, Value: value})
	}
	_, err := d.Ref.Update(ctx, fields)
	return err
}
