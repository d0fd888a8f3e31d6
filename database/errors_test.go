package database

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"write exception", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, true},
		{"bulk write exception", mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Code: 11001}}}}, true},
		{"other code", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121}}}, false},
		{"message fallback", errors.New("E11000 duplicate key error collection: likes"), true},
		{"sentinel", fmt.Errorf("create: %w", ErrDuplicate), true},
		{"generic", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKey(tt.err); got != tt.want {
				t.Fatalf("IsDuplicateKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	if !errors.Is(translate(mongo.ErrNoDocuments), ErrNotFound) {
		t.Fatal("ErrNoDocuments should map to ErrNotFound")
	}
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	if !errors.Is(translate(dup), ErrDuplicate) {
		t.Fatal("duplicate key should map to ErrDuplicate")
	}
	if translate(nil) != nil {
		t.Fatal("nil should stay nil")
	}
}
