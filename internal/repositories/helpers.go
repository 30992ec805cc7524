package repositories

import (
	"database/sql"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type rowScanner interface {
	Scan(dest ...any) error
}

// date-колонки приходят из pq как time.Time, наружу отдаём "YYYY-MM-DD"
func dateOut(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	s := nt.Time.Format(dateLayout)
	return &s
}

func dateIn(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	if t, err := time.Parse(dateLayout, strings.TrimSpace(*s)); err == nil {
		return t
	}
	return *s
}

func strOut(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func strIn(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
