package domain

import "time"

// Term is an academic term offered by the catalog.
type Term struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Subject is a subject code such as "CS".
type Subject struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Class is one section returned by a course search.
type Class struct {
	CRN           string  `json:"crn"`
	Title         string  `json:"title"`
	Subject       string  `json:"subject"`
	CourseNumber  string  `json:"courseNumber"`
	Instructor    *string `json:"instructor,omitempty"`
	MeetingDays   *string `json:"meetingDays,omitempty"`
	MeetingTimes  *string `json:"meetingTimes,omitempty"`
	Location      *string `json:"location,omitempty"`
	Enrollment    int     `json:"enrollment"`
	EnrollmentCap int     `json:"enrollmentCap"`
	Waitlist      int     `json:"waitlist"`
	Credits       int     `json:"credits"`
}

// CourseInfo describes one course and its sections in a term.
type CourseInfo struct {
	Course   CourseCandidate `json:"course"`
	Term     string          `json:"term"`
	Sections []Class         `json:"sections"`
}

// CourseRefresh summarizes a forced reload of course candidates.
type CourseRefresh struct {
	Term           string   `json:"term"`
	Subjects       int      `json:"subjects"`
	Courses        int      `json:"courses"`
	FailedSubjects []string `json:"failedSubjects"`
}

// CourseDataStatus reports what the catalog cache currently holds.
type CourseDataStatus struct {
	Backend        string     `json:"backend"`
	SubjectsCached int        `json:"subjectsCached"`
	TotalCourses   int        `json:"totalCourses"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`
	CacheHealth    string     `json:"cacheHealth"`
}
