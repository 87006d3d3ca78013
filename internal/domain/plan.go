package domain

import "strings"

// SemesterPlan is one entry of a suggested plan.
type SemesterPlan struct {
	Year    int      `json:"year"`
	Term    string   `json:"term"`
	Courses []string `json:"courses"`
	Credits int      `json:"credits"`
	Notes   string   `json:"notes,omitempty"`
}

// CourseCandidate is a catalog course considered for a plan.
type CourseCandidate struct {
	Subject      string  `json:"subject"`
	CourseNumber string  `json:"courseNumber"`
	Title        string  `json:"title"`
	Credits      int     `json:"credits"`
	Score        float64 `json:"-"`
}

// Code returns the compact course code, e.g. "CS2500".
func (c CourseCandidate) Code() string {
	return strings.ToUpper(c.Subject) + c.CourseNumber
}

// Label is the display form used in plans: "CS2500 - Fundamentals of Computer Science 1".
func (c CourseCandidate) Label() string {
	return c.Code() + " - " + c.Title
}

// Level is the leading digit of the course number, or 2 when it is not numeric.
func (c CourseCandidate) Level() int {
	if c.CourseNumber != "" && c.CourseNumber[0] >= '0' && c.CourseNumber[0] <= '9' {
		return int(c.CourseNumber[0] - '0')
	}
	return 2
}
