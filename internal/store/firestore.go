// internal/store/firestore.go
package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q := f.client.Collection(collection).Query
	for _, flt := range filters {
		q = q.Where(flt.Field, string(flt.Op), flt.Value)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, apperror.Transient("query "+collection, err)
	}

	out := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out, nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	if id == "" {
		return Document{}, apperror.Validation("%s id is required", collection)
	}
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, apperror.NotFound(collection, id)
	}
	if err != nil {
		return Document{}, apperror.Transient("get "+collection+"/"+id, err)
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (f *Firestore) Add(ctx context.Context, collection string, data models.Record) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", apperror.Transient("add "+collection, err)
	}
	return ref.ID, nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, data models.Record) error {
	if id == "" {
		return apperror.Validation("%s id is required", collection)
	}
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return apperror.Transient("set "+collection+"/"+id, err)
	}
	return nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, partial models.Record) error {
	if id == "" {
		return apperror.Validation("%s id is required", collection)
	}
	if len(partial) == 0 {
		_, err := f.Get(ctx, collection, id)
		return err
	}

	updates := make([]firestore.Update, 0, len(partial))
	for k, v := range partial {
		if v == nil {
			v = firestore.Delete
		}
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}

	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return apperror.NotFound(collection, id)
	}
	if err != nil {
		return apperror.Transient("update "+collection+"/"+id, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return apperror.Validation("%s id is required", collection)
	}
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return apperror.Transient("delete "+collection+"/"+id, err)
	}
	return nil
}
