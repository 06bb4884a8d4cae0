package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quillnotes/quill-server/internal/domain"
)

// userDoc is the users collection document.
type userDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Email      string             `bson:"email"`
	EmailLower string             `bson:"email_lower"` // unique
	FirstName  string             `bson:"first_name"`
	LastName   string             `bson:"last_name"`
	Picture    string             `bson:"picture,omitempty"`
	Provider   string             `bson:"provider"`
	Role       string             `bson:"role"` // user | admin
	Version    int                `bson:"version"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// noteDoc is the notes collection document.
type noteDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	OwnerID   primitive.ObjectID `bson:"owner_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Tags      []string           `bson:"tags"`
	Category  string             `bson:"category"`
	Version   int                `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func newUserDoc(u *domain.User) (*userDoc, error) {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, err
	}
	return &userDoc{
		ID:         oid,
		Email:      u.Email,
		EmailLower: domain.NormalizeEmail(u.Email),
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Picture:    u.Picture,
		Provider:   u.Provider,
		Role:       string(u.Role),
		Version:    u.Version,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}, nil
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Picture:   d.Picture,
		Provider:  d.Provider,
		Role:      domain.Role(d.Role),
		Version:   d.Version,
		Timestamps: domain.Timestamps{
			CreatedAt: d.CreatedAt.UTC(),
			UpdatedAt: d.UpdatedAt.UTC(),
		},
	}
}

func newNoteDoc(n *domain.Note) (*noteDoc, error) {
	oid, err := primitive.ObjectIDFromHex(n.ID)
	if err != nil {
		return nil, err
	}
	owner, err := primitive.ObjectIDFromHex(n.OwnerID)
	if err != nil {
		return nil, err
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return &noteDoc{
		ID:        oid,
		OwnerID:   owner,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      tags,
		Category:  n.Category,
		Version:   n.Version,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}, nil
}

func (d *noteDoc) toDomain() *domain.Note {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Note{
		ID:       d.ID.Hex(),
		Title:    d.Title,
		Content:  d.Content,
		Tags:     tags,
		Category: d.Category,
		OwnerID:  d.OwnerID.Hex(),
		Version:  d.Version,
		Timestamps: domain.Timestamps{
			CreatedAt: d.CreatedAt.UTC(),
			UpdatedAt: d.UpdatedAt.UTC(),
		},
	}
}
