package models

// All lists every table in migration order; referenced tables come first.
func All() []any {
	return []any{
		&User{},
		&Session{},
		&Lead{},
		&Event{},
		&Inventaris{},
		&RAB{},
		&LPJ{},
		&Flyer{},
		&GoldPrice{},
		&GoldRefreshQuota{},
	}
}
