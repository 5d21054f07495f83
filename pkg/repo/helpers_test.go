package repo_test

import "github.com/google/uuid"

func newUUID() uuid.UUID {
	return uuid.New()
}
