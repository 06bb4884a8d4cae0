// Package id generates identifiers for stored records and issued tokens.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// New returns a fresh record identifier: a 24 character lowercase hex ObjectID.
// Every store backend uses this format.
func New() string {
	return primitive.NewObjectID().Hex()
}

// Valid reports whether s is a well-formed record identifier.
func Valid(s string) bool {
	return primitive.IsValidObjectID(s)
}

// Normalize lowercases a valid identifier so that lookups in string-keyed
// backends match the stored form. Invalid input is returned unchanged.
func Normalize(s string) string {
	if !Valid(s) {
		return s
	}
	return strings.ToLower(s)
}

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "tok-V1StGXR8_Z5jdHi6B-myT")
//
// Used for opaque values that are never looked up in a store, such as token ids.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
