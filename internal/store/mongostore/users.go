package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/store"
)

// CreateUser inserts a new user document.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	doc, err := newUserDoc(user)
	if err != nil {
		return store.ErrInvalidInput.WithCause(err)
	}
	_, err = s.users.InsertOne(ctx, doc)
	return mapErr(err, "insert user")
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"email_lower": domain.NormalizeEmail(email)})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr(err, "find user")
	}
	return doc.toDomain(), nil
}

// UpdateUser sets every mutable field and increments the version.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	oid, err := objectID(user.ID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"email":       user.Email,
			"email_lower": domain.NormalizeEmail(user.Email),
			"first_name":  user.FirstName,
			"last_name":   user.LastName,
			"picture":     user.Picture,
			"provider":    user.Provider,
			"role":        string(user.Role),
			"updated_at":  user.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return mapErr(err, "update user")
	}
	user.Version = doc.Version
	return nil
}

// ListUsers returns one page of users, newest first.
func (s *Store) ListUsers(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.User], error) {
	params = params.Normalize()

	total, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	cursor, err := s.users.Find(ctx, bson.M{}, pageOptions(params))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return store.NewPaginatedResult(users, int(total), params), nil
}
