package domain

// Course is an enrolled course discovered on the portal.
type Course struct {
	ID   string // org-unit id taken from the course link
	Name string
	URL  string
}
