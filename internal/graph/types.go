package graph

import (
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/services/user_services"
)

// The structs below are the API shapes. Field names resolve case-insensitively
// against the camelCase schema, so this file is the only casing translation.

type otpResponse struct {
	Success bool
	Message string
}

type authResponse struct {
	Success   bool
	Message   string
	Token     *string
	ExpiresAt *string
	User      *userResponse
}

type userResponse struct {
	ID             graphql.ID
	Email          string
	FirstName      string
	LastName       string
	StudentID      *string
	Major          *string
	GraduationYear *int32
	IsVerified     bool
	CreatedAt      string
	LastLoginAt    *string
}

type cacheStatsResponse struct {
	Backend     string
	TotalOtps   int32
	ActiveOtps  int32
	ExpiredOtps int32
}

type termResponse struct {
	ID   string
	Name string
}

type subjectResponse struct {
	Code string
	Name string
}

type classResponse struct {
	Crn           string
	Title         string
	Subject       string
	CourseNumber  string
	Instructor    *string
	MeetingDays   *string
	MeetingTimes  *string
	Location      *string
	Enrollment    int32
	EnrollmentCap int32
	Waitlist      int32
	Credits       int32
}

type semesterPlanResponse struct {
	Year    int32
	Term    string
	Courses []string
	Credits int32
	Notes   *string
}

type courseResponse struct {
	Code         string
	Subject      string
	CourseNumber string
	Title        string
	Credits      int32
	Score        *float64
}

type courseInfoResponse struct {
	Code         string
	Subject      string
	CourseNumber string
	Title        string
	Credits      int32
	Term         string
	Sections     []*classResponse
}

type courseRefreshResponse struct {
	Term           string
	Subjects       int32
	Courses        int32
	FailedSubjects []string
}

type courseDataStatusResponse struct {
	Backend        string
	SubjectsCached int32
	TotalCourses   int32
	LastUpdated    *string
	CacheHealth    string
}

type registerDataInput struct {
	FirstName      string
	LastName       string
	StudentID      *string
	Major          *string
	GraduationYear *int32
}

type verifyOtpInput struct {
	Email        string
	Code         string
	Purpose      string
	RegisterData *registerDataInput
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toUser(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	out := &userResponse{
		ID:          graphql.ID(u.ID),
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		StudentID:   u.StudentID,
		Major:       u.Major,
		IsVerified:  u.IsVerified,
		CreatedAt:   formatTime(u.CreatedAt),
		LastLoginAt: optionalTime(u.LastLoginAt),
	}
	if u.GraduationYear != nil {
		y := int32(*u.GraduationYear)
		out.GraduationYear = &y
	}
	return out
}

func toAuthResponse(res *user_services.AuthResult) *authResponse {
	out := &authResponse{Success: res.Success, Message: res.Message, User: toUser(res.User)}
	if res.Success {
		out.Token = optionalString(res.Token)
		exp := formatTime(res.ExpiresAt)
		out.ExpiresAt = &exp
	}
	return out
}

func toRegisterData(in *registerDataInput) *user_services.RegisterData {
	if in == nil {
		return nil
	}
	out := &user_services.RegisterData{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		StudentID: in.StudentID,
		Major:     in.Major,
	}
	if in.GraduationYear != nil {
		y := int(*in.GraduationYear)
		out.GraduationYear = &y
	}
	return out
}

func toClass(c domain.Class) *classResponse {
	return &classResponse{
		Crn:           c.CRN,
		Title:         c.Title,
		Subject:       c.Subject,
		CourseNumber:  c.CourseNumber,
		Instructor:    c.Instructor,
		MeetingDays:   c.MeetingDays,
		MeetingTimes:  c.MeetingTimes,
		Location:      c.Location,
		Enrollment:    int32(c.Enrollment),
		EnrollmentCap: int32(c.EnrollmentCap),
		Waitlist:      int32(c.Waitlist),
		Credits:       int32(c.Credits),
	}
}

func toSemester(p domain.SemesterPlan) *semesterPlanResponse {
	courses := p.Courses
	if courses == nil {
		courses = []string{}
	}
	return &semesterPlanResponse{
		Year:    int32(p.Year),
		Term:    p.Term,
		Courses: courses,
		Credits: int32(p.Credits),
		Notes:   optionalString(p.Notes),
	}
}

func toCourse(c domain.CourseCandidate) *courseResponse {
	out := &courseResponse{
		Code:         c.Code(),
		Subject:      c.Subject,
		CourseNumber: c.CourseNumber,
		Title:        c.Title,
		Credits:      int32(c.Credits),
	}
	if c.Score != 0 {
		score := c.Score
		out.Score = &score
	}
	return out
}

func toCourseInfo(info *domain.CourseInfo) *courseInfoResponse {
	if info == nil {
		return nil
	}
	out := &courseInfoResponse{
		Code:         info.Course.Code(),
		Subject:      info.Course.Subject,
		CourseNumber: info.Course.CourseNumber,
		Title:        info.Course.Title,
		Credits:      int32(info.Course.Credits),
		Term:         info.Term,
		Sections:     make([]*classResponse, 0, len(info.Sections)),
	}
	for _, c := range info.Sections {
		out.Sections = append(out.Sections, toClass(c))
	}
	return out
}

func toCourseRefresh(r *domain.CourseRefresh) *courseRefreshResponse {
	failed := r.FailedSubjects
	if failed == nil {
		failed = []string{}
	}
	return &courseRefreshResponse{
		Term:           r.Term,
		Subjects:       int32(r.Subjects),
		Courses:        int32(r.Courses),
		FailedSubjects: failed,
	}
}

func toCourseDataStatus(s domain.CourseDataStatus) *courseDataStatusResponse {
	return &courseDataStatusResponse{
		Backend:        s.Backend,
		SubjectsCached: int32(s.SubjectsCached),
		TotalCourses:   int32(s.TotalCourses),
		LastUpdated:    optionalTime(s.LastUpdated),
		CacheHealth:    s.CacheHealth,
	}
}
