package models

// All lists every persisted model in migration order (users first, so foreign keys resolve).
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&Transaction{},
		&ExternalTransaction{},
		&Tombstone{},
	}
}
