package postgres

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
