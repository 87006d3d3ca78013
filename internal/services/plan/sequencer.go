package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

const defaultCredits = 4

var (
	strictCodePattern = regexp.MustCompile(`\b([A-Z]{2,4}\d{4})\b`)
	looseCodePattern  = regexp.MustCompile(`\b([A-Z]+\d+)\b`)
)

var cleanerElectives = map[category][]string{
	categoryBusiness: {"Business Strategy", "Marketing Analytics", "Financial Analysis", "Operations Research", "Corporate Finance", "Supply Chain Analytics"},
	categoryData:     {"Advanced Analytics", "Data Warehousing", "Predictive Modeling", "Business Intelligence", "Data Governance", "Machine Learning Applications"},
	categoryGeneral:  {"Professional Skills", "Industry Applications", "Research Project", "Technical Writing", "Capstone Experience", "Leadership Development"},
}

var fallbackElectives = map[category][]string{
	categoryBusiness: {"Business Ethics", "Organizational Behavior", "Strategic Management", "Operations Management", "International Business", "Entrepreneurship", "Supply Chain Management", "Digital Marketing"},
	categoryData:     {"Data Mining", "Machine Learning Applications", "Statistical Modeling", "Database Design", "Data Visualization", "Predictive Analytics", "Business Intelligence Tools", "Big Data Technologies"},
	categoryGeneral:  {"Professional Development", "Technical Communication", "Industry Seminar", "Research Methods", "Capstone Project", "Internship Preparation", "Leadership Skills", "Ethics in Technology"},
}

// llmSemester is the shape the model is asked to produce.
type llmSemester struct {
	Year    int      `json:"year"`
	Term    string   `json:"term"`
	Courses []string `json:"courses"`
	Notes   string   `json:"notes"`
}

func buildPrompt(courses []domain.CourseCandidate, years int, interest string) string {
	lines := make([]string, 0, len(courses))
	for _, c := range courses {
		lines = append(lines, fmt.Sprintf("%s: %s (%d credits)", c.Code(), c.Title, credits(c)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an academic advisor creating an optimal %d-year course sequence for a student interested in %q.\n\n", years, interest)
	b.WriteString("Available courses:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nCreate a semester-by-semester plan with these guidelines:\n")
	b.WriteString("1. Prerequisites should be taken before advanced courses\n")
	b.WriteString("2. Foundation courses (1000-2000 level) should come early\n")
	b.WriteString("3. Advanced courses (3000+ level) should come later\n")
	b.WriteString("4. Aim for 12-18 credits (3-4 courses) per semester\n")
	b.WriteString("5. Balance difficulty across semesters\n")
	fmt.Fprintf(&b, "6. Consider a logical learning progression for %q\n", interest)
	b.WriteString("7. Never repeat a course; each course appears only once\n")
	b.WriteString("8. If you need electives, give them specific names instead of \"General Elective\"\n\n")
	b.WriteString("Respond with a JSON array only, for example:\n")
	b.WriteString(`[{"year": 1, "term": "Fall", "courses": ["CS2500 - Fundamentals of Computer Science 1", "MATH1341 - Calculus 1 for Science and Engineering", "ENGW1111 - First-Year Writing"], "credits": 12, "notes": "Foundation semester"}]`)
	fmt.Fprintf(&b, "\n\nInclude exactly %d semesters (Fall and Spring for each year).\n", years*2)
	return b.String()
}

// extractJSON returns the body of the first ```json or ``` fence, or the
// trimmed text when there is none.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(text, fence)
		if start < 0 {
			continue
		}
		start += len(fence)
		end := strings.Index(text[start:], "```")
		if end < 0 {
			return strings.TrimSpace(text[start:])
		}
		return strings.TrimSpace(text[start : start+end])
	}
	return text
}

func parseSemesters(reply string) ([]llmSemester, error) {
	var semesters []llmSemester
	if err := json.Unmarshal([]byte(extractJSON(reply)), &semesters); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(semesters) == 0 {
		return nil, fmt.Errorf("decode plan: empty array")
	}
	return semesters, nil
}

func extractCode(entry string) string {
	upper := strings.ToUpper(entry)
	if m := strictCodePattern.FindStringSubmatch(upper); m != nil {
		return m[1]
	}
	if m := looseCodePattern.FindStringSubmatch(upper); m != nil {
		return m[1]
	}
	return ""
}

func credits(c domain.CourseCandidate) int {
	if c.Credits > 0 {
		return c.Credits
	}
	return defaultCredits
}

// planState tracks what a plan already contains so nothing repeats across semesters.
type planState struct {
	interest      string
	title         string
	category      category
	usedCodes     map[string]bool
	usedNames     map[string]bool
	electiveCount int
}

func newPlanState(interest string) *planState {
	return &planState{
		interest:  interest,
		title:     cases.Title(language.English).String(interest),
		category:  interestCategory(interest),
		usedCodes: make(map[string]bool),
		usedNames: make(map[string]bool),
	}
}

func (p *planState) addCourse(sem *domain.SemesterPlan, c domain.CourseCandidate) {
	p.usedCodes[c.Code()] = true
	p.usedNames[c.Label()] = true
	sem.Courses = append(sem.Courses, c.Label())
	sem.Credits += credits(c)
}

func (p *planState) addElective(sem *domain.SemesterPlan, name string) {
	p.usedNames[name] = true
	sem.Courses = append(sem.Courses, name)
	sem.Credits += defaultCredits
}

// nextElective picks the first unused name from the list, then numbered names
// built from format.
func (p *planState) nextElective(names []string, format string) string {
	for _, n := range names {
		if !p.usedNames[n] {
			return n
		}
	}
	for {
		p.electiveCount++
		name := fmt.Sprintf(format, p.title, p.electiveCount)
		if !p.usedNames[name] {
			return name
		}
	}
}

func isElectiveEntry(entry string) bool {
	lower := strings.ToLower(entry)
	return strings.Contains(lower, "elective") || strings.Contains(lower, "general")
}

// cleanPlan keeps only known, unused courses from the model's answer, names
// its electives and pads every semester to three entries.
func cleanPlan(raw []llmSemester, known map[string]domain.CourseCandidate, state *planState) []domain.SemesterPlan {
	out := make([]domain.SemesterPlan, 0, len(raw))
	for _, r := range raw {
		sem := domain.SemesterPlan{Year: r.Year, Term: r.Term, Notes: strings.TrimSpace(r.Notes)}
		for _, entry := range r.Courses {
			code := extractCode(entry)
			if c, ok := known[code]; ok && !state.usedCodes[code] {
				state.addCourse(&sem, c)
				continue
			}
			if isElectiveEntry(entry) {
				state.addElective(&sem, state.nextElective(cleanerElectives[state.category], "%s Specialization %d"))
			}
		}
		for len(sem.Courses) < 3 {
			state.addElective(&sem, state.nextElective(nil, "%s Focus Area %d"))
		}
		out = append(out, sem)
	}
	return out
}

// fallbackSequence distributes courses by level into the given number of
// semesters, then fills each to four courses or sixteen credits with electives.
func fallbackSequence(courses []domain.CourseCandidate, semesters int, state *planState) []domain.SemesterPlan {
	var foundation, intermediate, advanced []domain.CourseCandidate
	for _, c := range courses {
		if state.usedCodes[c.Code()] {
			continue
		}
		switch level := c.Level(); {
		case level <= 2:
			foundation = append(foundation, c)
		case level == 3:
			intermediate = append(intermediate, c)
		default:
			advanced = append(advanced, c)
		}
	}
	ordered := append(append(foundation, intermediate...), advanced...)

	perSemester := 3
	if semesters > 0 && len(ordered)/semesters > perSemester {
		perSemester = len(ordered) / semesters
	}

	out := make([]domain.SemesterPlan, 0, semesters)
	next := 0
	for i := 0; i < semesters; i++ {
		sem := domain.SemesterPlan{}
		core := 0
		for taken := 0; taken < perSemester && next < len(ordered); next++ {
			c := ordered[next]
			if state.usedCodes[c.Code()] {
				continue
			}
			state.addCourse(&sem, c)
			core++
			taken++
		}
		for len(sem.Courses) < 4 && sem.Credits < 16 {
			state.addElective(&sem, state.nextElective(fallbackElectives[state.category], "%s Elective %d"))
		}
		sem.Notes = fmt.Sprintf("Planned for %s - %d core courses", state.interest, core)
		out = append(out, sem)
	}
	return out
}
