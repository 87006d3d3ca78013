// File: internal/services/catalog/mapper.go
package catalog

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

func toTerms(in []bannerCodeDescription) []domain.Term {
	out := make([]domain.Term, 0, len(in))
	for _, t := range in {
		if t.Code == "" {
			continue
		}
		out = append(out, domain.Term{ID: t.Code, Name: html.UnescapeString(t.Description)})
	}
	return out
}

func toSubjects(in []bannerCodeDescription) []domain.Subject {
	out := make([]domain.Subject, 0, len(in))
	for _, s := range in {
		if s.Code == "" {
			continue
		}
		out = append(out, domain.Subject{Code: s.Code, Name: html.UnescapeString(s.Description)})
	}
	return out
}

func toClass(s bannerSection) domain.Class {
	c := domain.Class{
		CRN:           string(s.CourseReferenceNumber),
		Title:         html.UnescapeString(s.CourseTitle),
		Subject:       s.Subject,
		CourseNumber:  string(s.CourseNumber),
		Enrollment:    s.Enrollment,
		EnrollmentCap: s.MaximumEnrollment,
		Waitlist:      s.WaitCount,
		Credits:       sectionCredits(s),
	}

	var names []string
	for _, f := range s.Faculty {
		if f.DisplayName != "" {
			names = append(names, f.DisplayName)
		}
	}
	c.Instructor = joinOrNil(names)

	if len(s.MeetingsFaculty) > 0 && s.MeetingsFaculty[0].MeetingTime != nil {
		mt := s.MeetingsFaculty[0].MeetingTime
		c.MeetingDays = joinOrNil(meetingDays(mt))
		c.MeetingTimes = formatMeetingTime(mt.BeginTime, mt.EndTime)
		c.Location = formatLocation(mt.BuildingDescription, mt.Room)
	}
	return c
}

func sectionCredits(s bannerSection) int {
	if s.CreditHourLow != nil && *s.CreditHourLow > 0 {
		return int(math.Round(*s.CreditHourLow))
	}
	if s.CreditHours != nil {
		return int(math.Round(*s.CreditHours))
	}
	return 0
}

func meetingDays(mt *bannerMeetingTime) []string {
	days := []struct {
		on   bool
		abbr string
	}{
		{mt.Monday, "Mon"},
		{mt.Tuesday, "Tue"},
		{mt.Wednesday, "Wed"},
		{mt.Thursday, "Thu"},
		{mt.Friday, "Fri"},
		{mt.Saturday, "Sat"},
		{mt.Sunday, "Sun"},
	}
	var out []string
	for _, d := range days {
		if d.on {
			out = append(out, d.abbr)
		}
	}
	return out
}

// formatMeetingTime turns "0915","1020" into "9:15 AM - 10:20 AM". Four-character
// values that are not numbers are passed through as "begin - end".
func formatMeetingTime(begin, end string) *string {
	if begin == "" || end == "" || len(begin) != 4 || len(end) != 4 {
		return nil
	}
	b, errB := clock12(begin)
	e, errE := clock12(end)
	if errB != nil || errE != nil {
		s := begin + " - " + end
		return &s
	}
	s := b + " - " + e
	return &s
}

func clock12(hhmm string) (string, error) {
	hour, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return "", err
	}
	if _, err := strconv.Atoi(hhmm[2:]); err != nil {
		return "", err
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}
	return fmt.Sprintf("%d:%s %s", hour, hhmm[2:], ampm), nil
}

func formatLocation(building, room string) *string {
	switch {
	case building != "" && room != "":
		s := building + " " + room
		return &s
	case building != "":
		return &building
	default:
		return nil
	}
}

func joinOrNil(parts []string) *string {
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, ", ")
	return &s
}
