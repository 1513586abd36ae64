package postgres

import "testing"

func TestMigrateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@db:5432/blogapi?sslmode=disable", "pgx5://u:p@db:5432/blogapi?sslmode=disable"},
		{"postgresql://db/blogapi", "pgx5://db/blogapi"},
		{"pgx5://db/blogapi", "pgx5://db/blogapi"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			t.Parallel()
			if got := migrateURL(tt.dsn); got != tt.want {
				t.Errorf("migrateURL(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}

func TestParseIDRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := parseID("not-a-uuid"); err == nil {
		t.Fatal("expected an error for a malformed id")
	}
	got, err := parseID("0190a3c4-7c1e-7000-8000-000000000000")
	if err != nil {
		t.Fatalf("parseID failed: %v", err)
	}
	if !got.Valid {
		t.Fatal("parsed id is not valid")
	}
}
