package models

import (
	"github.com/google/uuid"
)

// assignID fills a zero primary key before insert. Postgres also defaults ids
// via gen_random_uuid(), but generating here keeps SQLite and RETURNING-free
// inserts working the same way.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
