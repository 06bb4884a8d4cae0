package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/store"
)

// CreateNote inserts a new note document.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note) error {
	doc, err := newNoteDoc(note)
	if err != nil {
		return store.ErrInvalidInput.WithCause(err)
	}
	_, err = s.notes.InsertOne(ctx, doc)
	return mapErr(err, "insert note")
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findNote(ctx, bson.M{"_id": oid})
}

// GetOwnedNote retrieves a note matching both id and owner.
func (s *Store) GetOwnedNote(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	owner, err := objectID(ownerID)
	if err != nil {
		return nil, err
	}
	return s.findNote(ctx, bson.M{"_id": oid, "owner_id": owner})
}

func (s *Store) findNote(ctx context.Context, filter bson.M) (*domain.Note, error) {
	var doc noteDoc
	if err := s.notes.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr(err, "find note")
	}
	return doc.toDomain(), nil
}

// UpdateNote sets the editable fields and increments the version.
func (s *Store) UpdateNote(ctx context.Context, note *domain.Note) error {
	oid, err := objectID(note.ID)
	if err != nil {
		return err
	}
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}

	update := bson.M{
		"$set": bson.M{
			"title":      note.Title,
			"content":    note.Content,
			"tags":       tags,
			"category":   note.Category,
			"updated_at": note.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	var doc noteDoc
	err = s.notes.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return mapErr(err, "update note")
	}
	note.Version = doc.Version
	return nil
}

// DeleteNote removes a note by ID.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListNotes returns the notes matching filter, newest first.
func (s *Store) ListNotes(ctx context.Context, filter domain.NoteFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Note], error) {
	params = params.Normalize()

	owner, err := objectID(filter.OwnerID)
	if err != nil {
		return store.NewPaginatedResult([]*domain.Note{}, 0, params), nil
	}

	query := bson.M{"owner_id": owner}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if len(filter.Tags) > 0 {
		query["tags"] = bson.M{"$in": filter.Tags}
	}

	total, err := s.notes.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}

	cursor, err := s.notes.Find(ctx, query, pageOptions(params))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	var docs []noteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}

	notes := make([]*domain.Note, 0, len(docs))
	for i := range docs {
		notes = append(notes, docs[i].toDomain())
	}
	return store.NewPaginatedResult(notes, int(total), params), nil
}
