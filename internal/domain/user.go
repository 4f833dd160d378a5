package domain

import "time"

// User is a helpdesk member that tickets can be assigned to.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}
