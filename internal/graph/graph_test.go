package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/graph-gophers/graphql-go/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/middleware"
	"github.com/jacklvd/NEU-scheduler/internal/repository/challenge"
	"github.com/jacklvd/NEU-scheduler/internal/services"
	"github.com/jacklvd/NEU-scheduler/internal/services/catalog"
	"github.com/jacklvd/NEU-scheduler/internal/services/plan"
	"github.com/jacklvd/NEU-scheduler/internal/services/user_services"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeAuth struct {
	mock.Mock
}

func (f *fakeAuth) RequestOTP(ctx context.Context, email, purpose string) *user_services.OTPRequestResult {
	return f.Called(email, purpose).Get(0).(*user_services.OTPRequestResult)
}

func (f *fakeAuth) Stats(ctx context.Context) (challenge.Stats, error) {
	args := f.Called()
	return args.Get(0).(challenge.Stats), args.Error(1)
}

func (f *fakeAuth) VerifyOTP(ctx context.Context, in user_services.VerifyOTPInput) *user_services.AuthResult {
	return f.Called(in).Get(0).(*user_services.AuthResult)
}

func (f *fakeAuth) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	args := f.Called(token)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (f *fakeAuth) Refresh(ctx context.Context, token string) *user_services.AuthResult {
	return f.Called(token).Get(0).(*user_services.AuthResult)
}

type fakeCatalog struct {
	mock.Mock
}

func (f *fakeCatalog) GetTerms(ctx context.Context, maxResults int) ([]domain.Term, error) {
	args := f.Called(maxResults)
	v, _ := args.Get(0).([]domain.Term)
	return v, args.Error(1)
}

func (f *fakeCatalog) GetSubjects(ctx context.Context, term, searchTerm string) ([]domain.Subject, error) {
	args := f.Called(term, searchTerm)
	v, _ := args.Get(0).([]domain.Subject)
	return v, args.Error(1)
}

func (f *fakeCatalog) SearchCourses(ctx context.Context, q catalog.SearchQuery) ([]domain.Class, error) {
	args := f.Called(q)
	v, _ := args.Get(0).([]domain.Class)
	return v, args.Error(1)
}

func (f *fakeCatalog) Status(ctx context.Context) string {
	return f.Called().String(0)
}

func (f *fakeCatalog) CourseInfo(ctx context.Context, courseCode, term string) (*domain.CourseInfo, error) {
	args := f.Called(courseCode, term)
	v, _ := args.Get(0).(*domain.CourseInfo)
	return v, args.Error(1)
}

func (f *fakeCatalog) RefreshCourseData(ctx context.Context, subjects []string) (*domain.CourseRefresh, error) {
	args := f.Called(subjects)
	v, _ := args.Get(0).(*domain.CourseRefresh)
	return v, args.Error(1)
}

func (f *fakeCatalog) ResetCache(ctx context.Context) (int, error) {
	args := f.Called()
	return args.Int(0), args.Error(1)
}

func (f *fakeCatalog) DataStatus(ctx context.Context) domain.CourseDataStatus {
	return f.Called().Get(0).(domain.CourseDataStatus)
}

type fakePlanner struct {
	mock.Mock
}

func (f *fakePlanner) SuggestPlan(ctx context.Context, interest string, years int) ([]domain.SemesterPlan, error) {
	args := f.Called(interest, years)
	v, _ := args.Get(0).([]domain.SemesterPlan)
	return v, args.Error(1)
}

func (f *fakePlanner) Recommend(ctx context.Context, completed, interestAreas []string, maxResults int) ([]domain.CourseCandidate, error) {
	args := f.Called(completed, interestAreas, maxResults)
	v, _ := args.Get(0).([]domain.CourseCandidate)
	return v, args.Error(1)
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type testAPI struct {
	auth    *fakeAuth
	catalog *fakeCatalog
	planner *fakePlanner
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	api := &testAPI{auth: &fakeAuth{}, catalog: &fakeCatalog{}, planner: &fakePlanner{}}
	schema, err := NewSchema(&Resolver{
		OTP:          api.auth,
		Verifier:     api.auth,
		Sessions:     api.auth,
		Catalog:      api.catalog,
		Planner:      api.planner,
		StoreBackend: "memory",
		Logger:       nopLogger{},
	}, true)
	require.NoError(t, err)
	api.handler = middleware.BearerToken(&relay.Handler{Schema: schema})
	return api
}

func (a *testAPI) do(t *testing.T, query string, variables map[string]interface{}, bearer string) gqlResponse {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": variables})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)
	res := api.do(t, `{ healthCheck }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `"GraphQL API is healthy!"`, string(res.Data["healthCheck"]))
}

func TestOtpFlow(t *testing.T) {
	api := newTestAPI(t)
	api.auth.On("RequestOTP", "a@neu.edu", "register").
		Return(&user_services.OTPRequestResult{Success: true, Message: user_services.MsgCodeSent})

	res := api.do(t, `mutation($e: String!) { requestOtp(email: $e, purpose: "register") { success message } }`,
		map[string]interface{}{"e": "a@neu.edu"}, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"success": true, "message": "verification code sent"}`, string(res.Data["requestOtp"]))

	year := 2027
	created := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	api.auth.On("VerifyOTP", mock.MatchedBy(func(in user_services.VerifyOTPInput) bool {
		return in.Code == "123456" && in.RegisterData != nil && in.RegisterData.FirstName == "Alice" &&
			in.RegisterData.GraduationYear != nil && *in.RegisterData.GraduationYear == 2027
	})).Return(&user_services.AuthResult{
		Success:   true,
		Message:   user_services.MsgVerified,
		Token:     "signed.jwt.token",
		ExpiresAt: created.Add(30 * time.Minute),
		User:      &domain.User{ID: "u-1", Email: "a@neu.edu", FirstName: "Alice", LastName: "Smith", GraduationYear: &year, IsVerified: true, CreatedAt: created},
	})
	api.auth.On("VerifyOTP", mock.Anything).Return(&user_services.AuthResult{Message: user_services.MsgInvalidCode})

	verify := `mutation($in: VerifyOtpInput!) {
		verifyOtp(input: $in) { success message token expiresAt user { id email firstName graduationYear isVerified createdAt lastLoginAt } }
	}`
	res = api.do(t, verify, map[string]interface{}{"in": map[string]interface{}{
		"email": "a@neu.edu", "code": "654321", "purpose": "register",
		"registerData": map[string]interface{}{"firstName": "Alice", "lastName": "Smith"},
	}}, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"success": false, "message": "invalid code", "token": null, "expiresAt": null, "user": null}`, string(res.Data["verifyOtp"]))

	res = api.do(t, verify, map[string]interface{}{"in": map[string]interface{}{
		"email": "a@neu.edu", "code": "123456", "purpose": "register",
		"registerData": map[string]interface{}{"firstName": "Alice", "lastName": "Smith", "graduationYear": 2027},
	}}, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{
		"success": true, "message": "verification successful", "token": "signed.jwt.token",
		"expiresAt": "2025-09-01T12:30:00Z",
		"user": {"id": "u-1", "email": "a@neu.edu", "firstName": "Alice", "graduationYear": 2027,
		         "isVerified": true, "createdAt": "2025-09-01T12:00:00Z", "lastLoginAt": null}
	}`, string(res.Data["verifyOtp"]))
}

func TestMeUsesBearerToken(t *testing.T) {
	api := newTestAPI(t)
	api.auth.On("CurrentUser", "good").Return(&domain.User{ID: "u-1", Email: "a@neu.edu"}, nil)
	api.auth.On("CurrentUser", "").Return(nil, user_services.ErrUnauthenticated)
	api.auth.On("CurrentUser", "bad").Return(nil, user_services.ErrUnauthenticated)

	res := api.do(t, `{ me { id email } }`, nil, "good")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"id": "u-1", "email": "a@neu.edu"}`, string(res.Data["me"]))

	res = api.do(t, `{ me { id } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `null`, string(res.Data["me"]))

	res = api.do(t, `{ getCurrentUser(token: "bad") { id } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `null`, string(res.Data["getCurrentUser"]))
}

func TestRefreshSessionFallsBackToBearer(t *testing.T) {
	api := newTestAPI(t)
	api.auth.On("Refresh", "from-header").Return(&user_services.AuthResult{Message: user_services.MsgSessionExpired})

	res := api.do(t, `mutation { refreshSession { success message token } }`, nil, "from-header")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"success": false, "message": "session expired", "token": null}`, string(res.Data["refreshSession"]))
}

func TestCatalogQueries(t *testing.T) {
	api := newTestAPI(t)
	api.catalog.On("GetTerms", 50).Return([]domain.Term{{ID: "202610", Name: "Fall 2025 Semester"}}, nil)
	instructor := "Jane Doe"
	api.catalog.On("SearchCourses", catalog.SearchQuery{Term: "202610", Subject: "cs", PageSize: 20}).Return([]domain.Class{{
		CRN: "10001", Title: "Fundamentals of Computer Science 1", Subject: "CS", CourseNumber: "2500",
		Instructor: &instructor, Enrollment: 120, EnrollmentCap: 150, Credits: 4,
	}}, nil)

	res := api.do(t, `{ getTerms { id name } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[{"id": "202610", "name": "Fall 2025 Semester"}]`, string(res.Data["getTerms"]))

	res = api.do(t, `{ searchCourses(term: "202610", subject: "cs") { crn courseNumber instructor meetingDays enrollmentCap credits } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[{"crn": "10001", "courseNumber": "2500", "instructor": "Jane Doe", "meetingDays": null, "enrollmentCap": 150, "credits": 4}]`,
		string(res.Data["searchCourses"]))
}

func TestCatalogFailureIsGeneric(t *testing.T) {
	api := newTestAPI(t)
	api.catalog.On("GetSubjects", "202610", "").Return(nil, services.ErrCatalogUnavailable)
	api.catalog.On("GetTerms", 5).Return(nil, &catalog.CatalogError{Type: catalog.ErrTypeUpstream, Code: 503, Message: "banner said no"})

	res := api.do(t, `{ getSubjects(term: "202610") { code } }`, nil, "")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "course catalog is temporarily unavailable", res.Errors[0].Message)

	res = api.do(t, `{ getTerms(maxResults: 5) { id } }`, nil, "")
	require.Len(t, res.Errors, 1)
	assert.NotContains(t, res.Errors[0].Message, "banner said no")
}

func TestSuggestPlan(t *testing.T) {
	api := newTestAPI(t)
	api.planner.On("SuggestPlan", "machine learning", 2).Return([]domain.SemesterPlan{
		{Year: 1, Term: "Fall", Courses: []string{"CS2500 - Fundamentals of Computer Science 1"}, Credits: 4, Notes: "Planned for machine learning - 1 core courses"},
		{Year: 1, Term: "Spring", Courses: []string{"DS4400 - Machine Learning and Data Mining 1"}, Credits: 4},
	}, nil)
	api.planner.On("SuggestPlan", "x", 9).Return(nil, plan.ErrYearsOutOfRange)
	api.planner.On("SuggestPlan", "boom", 2).Return(nil, errors.New("database exploded"))

	res := api.do(t, `{ suggestPlan(interest: "machine learning") { year term courses credits notes } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[
		{"year": 1, "term": "Fall", "courses": ["CS2500 - Fundamentals of Computer Science 1"], "credits": 4, "notes": "Planned for machine learning - 1 core courses"},
		{"year": 1, "term": "Spring", "courses": ["DS4400 - Machine Learning and Data Mining 1"], "credits": 4, "notes": null}
	]`, string(res.Data["suggestPlan"]))

	res = api.do(t, `{ suggestPlan(interest: "x", years: 9) { year } }`, nil, "")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, plan.ErrYearsOutOfRange.Error(), res.Errors[0].Message)

	res = api.do(t, `{ suggestPlan(interest: "boom") { year } }`, nil, "")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "unable to suggest a plan right now", res.Errors[0].Message)
}

func TestCacheStats(t *testing.T) {
	api := newTestAPI(t)
	api.auth.On("Stats").Return(challenge.Stats{Total: 3, Active: 2, Expired: 1}, nil)

	res := api.do(t, `{ cacheStats { backend totalOtps activeOtps expiredOtps } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"backend": "memory", "totalOtps": 3, "activeOtps": 2, "expiredOtps": 1}`, string(res.Data["cacheStats"]))
}

func TestGetCourseInfo(t *testing.T) {
	api := newTestAPI(t)
	api.catalog.On("CourseInfo", "CS2500", "").Return(&domain.CourseInfo{
		Course:   domain.CourseCandidate{Subject: "CS", CourseNumber: "2500", Title: "Fundamentals of Computer Science 1", Credits: 4},
		Term:     "202610",
		Sections: []domain.Class{{CRN: "10001", Subject: "CS", CourseNumber: "2500", Credits: 4}},
	}, nil)
	api.catalog.On("CourseInfo", "CS9999", "202530").Return(nil, nil)
	api.catalog.On("CourseInfo", "Calculus", "").Return(nil, services.ErrInvalidCourseCode)

	res := api.do(t, `{ getCourseInfo(courseCode: "CS2500") { code title credits term sections { crn } } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"code": "CS2500", "title": "Fundamentals of Computer Science 1", "credits": 4, "term": "202610", "sections": [{"crn": "10001"}]}`,
		string(res.Data["getCourseInfo"]))

	res = api.do(t, `{ getCourseInfo(courseCode: "CS9999", termCode: "202530") { code } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `null`, string(res.Data["getCourseInfo"]))

	res = api.do(t, `{ getCourseInfo(courseCode: "Calculus") { code } }`, nil, "")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, services.ErrInvalidCourseCode.Error(), res.Errors[0].Message)
}

func TestGetCourseRecommendations(t *testing.T) {
	api := newTestAPI(t)
	api.planner.On("Recommend", []string{"CS2500"}, []string{"machine learning"}, 10).Return([]domain.CourseCandidate{
		{Subject: "DS", CourseNumber: "4400", Title: "Machine Learning and Data Mining 1", Credits: 4, Score: 0.8},
	}, nil)
	api.planner.On("Recommend", mock.Anything, mock.Anything, 10).Return(nil, plan.ErrNoInterestAreas)

	res := api.do(t, `{ getCourseRecommendations(completedCourses: ["CS2500"], interestAreas: ["machine learning"]) { code title credits score } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[{"code": "DS4400", "title": "Machine Learning and Data Mining 1", "credits": 4, "score": 0.8}]`,
		string(res.Data["getCourseRecommendations"]))

	res = api.do(t, `{ getCourseRecommendations(completedCourses: null, interestAreas: []) { code } }`, nil, "")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, plan.ErrNoInterestAreas.Error(), res.Errors[0].Message)
}

func TestGetCurrentCourseDataStatus(t *testing.T) {
	api := newTestAPI(t)
	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	api.catalog.On("DataStatus").Return(domain.CourseDataStatus{
		Backend: "redis", SubjectsCached: 3, TotalCourses: 120, LastUpdated: &at, CacheHealth: "operational",
	})

	res := api.do(t, `{ getCurrentCourseDataStatus { backend subjectsCached totalCourses lastUpdated cacheHealth } }`, nil, "")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"backend": "redis", "subjectsCached": 3, "totalCourses": 120, "lastUpdated": "2025-09-01T08:00:00Z", "cacheHealth": "operational"}`,
		string(res.Data["getCurrentCourseDataStatus"]))
}

func TestCatalogMutationsRequireSession(t *testing.T) {
	api := newTestAPI(t)
	api.auth.On("CurrentUser", "").Return(nil, user_services.ErrUnauthenticated)
	api.auth.On("CurrentUser", "good").Return(&domain.User{ID: "u-1"}, nil)
	api.catalog.On("ResetCache").Return(7, nil)
	api.catalog.On("RefreshCourseData", []string{"CS", "DS"}).Return(&domain.CourseRefresh{Term: "202610", Subjects: 2, Courses: 40}, nil)

	res := api.do(t, `mutation { resetCourseCache }`, nil, "")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "sign in required", res.Errors[0].Message)
	api.catalog.AssertNotCalled(t, "ResetCache")

	res = api.do(t, `mutation { resetCourseCache }`, nil, "good")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `true`, string(res.Data["resetCourseCache"]))

	res = api.do(t, `mutation { refreshCourseData(subjects: ["CS", "DS"]) { term subjects courses failedSubjects } }`, nil, "good")
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"term": "202610", "subjects": 2, "courses": 40, "failedSubjects": []}`, string(res.Data["refreshCourseData"]))
}

func TestResetCourseCacheFailure(t *testing.T) {
	api := newTestAPI(t)
	api.auth.On("CurrentUser", "good").Return(&domain.User{ID: "u-1"}, nil)
	api.catalog.On("ResetCache").Return(0, services.ErrCacheUnavailable)

	res := api.do(t, `mutation { resetCourseCache }`, nil, "good")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, services.ErrCacheUnavailable.Error(), res.Errors[0].Message)
}
