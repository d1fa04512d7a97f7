package model

import "github.com/google/uuid"

// asignarID fills a zero primary key before insert. IDs are generated in Go
// so PostgreSQL and SQLite behave the same.
func asignarID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
