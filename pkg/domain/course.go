package domain

import "time"

// Module is one ordered unit of a course. Its ID is either assigned by the
// server or a client-generated placeholder that is only valid until the next
// successful save round-trips a server identity. Callers treat both kinds as
// interchangeable list keys.
type Module struct {
	ID           string   `json:"id"`
	Heading      string   `json:"heading"`
	Summary      string   `json:"summary"`
	KeyTakeaways []string `json:"key_takeaways"`
	OrderIndex   int      `json:"order_index"`
}

// Course is the document being edited: scalar fields plus an ordered module
// sequence. Module order is semantically meaningful and is persisted through
// OrderIndex, which is recomputed from list position at save time.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Modules     []Module  `json:"modules"`
	CreatedAt   time.Time `json:"created_at"`
}

// CourseSummary is a row in the my-courses listing.
type CourseSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ModuleCount int       `json:"module_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clone returns a deep copy of the course, including modules and takeaways.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Modules = make([]Module, len(c.Modules))
	for i, m := range c.Modules {
		cp.Modules[i] = m
		cp.Modules[i].KeyTakeaways = append([]string(nil), m.KeyTakeaways...)
	}
	return &cp
}
