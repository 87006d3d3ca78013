package plan

import "github.com/jacklvd/NEU-scheduler/internal/domain"

// foundationCourses stands in for the catalog when it cannot be reached.
var foundationCourses = []domain.CourseCandidate{
	{Subject: "CS", CourseNumber: "1800", Title: "Discrete Structures", Credits: 4},
	{Subject: "CS", CourseNumber: "2500", Title: "Fundamentals of Computer Science 1", Credits: 4},
	{Subject: "CS", CourseNumber: "2510", Title: "Fundamentals of Computer Science 2", Credits: 4},
	{Subject: "CS", CourseNumber: "3000", Title: "Algorithms and Data", Credits: 4},
	{Subject: "CS", CourseNumber: "3200", Title: "Database Design", Credits: 4},
	{Subject: "CS", CourseNumber: "3500", Title: "Object-Oriented Design", Credits: 4},
	{Subject: "CS", CourseNumber: "3650", Title: "Computer Systems", Credits: 4},
	{Subject: "CS", CourseNumber: "4100", Title: "Artificial Intelligence", Credits: 4},
	{Subject: "CS", CourseNumber: "4400", Title: "Programming Languages", Credits: 4},
	{Subject: "CS", CourseNumber: "4500", Title: "Software Development", Credits: 4},
	{Subject: "DS", CourseNumber: "2000", Title: "Programming with Data", Credits: 2},
	{Subject: "DS", CourseNumber: "3000", Title: "Foundations of Data Science", Credits: 4},
	{Subject: "DS", CourseNumber: "4400", Title: "Machine Learning and Data Mining 1", Credits: 4},
	{Subject: "DS", CourseNumber: "4420", Title: "Machine Learning and Data Mining 2", Credits: 4},
	{Subject: "MATH", CourseNumber: "1341", Title: "Calculus 1 for Science and Engineering", Credits: 4},
	{Subject: "MATH", CourseNumber: "1342", Title: "Calculus 2 for Science and Engineering", Credits: 4},
	{Subject: "MATH", CourseNumber: "2331", Title: "Linear Algebra", Credits: 4},
	{Subject: "MATH", CourseNumber: "3081", Title: "Probability and Statistics", Credits: 4},
	{Subject: "ENGW", CourseNumber: "1111", Title: "First-Year Writing", Credits: 4},
	{Subject: "ENGW", CourseNumber: "3302", Title: "Advanced Writing in the Technical Professions", Credits: 4},
	{Subject: "PHIL", CourseNumber: "1145", Title: "Technology and Human Values", Credits: 4},
	{Subject: "ECON", CourseNumber: "1115", Title: "Principles of Macroeconomics", Credits: 4},
	{Subject: "IS", CourseNumber: "2000", Title: "Principles of Information Science", Credits: 4},
	{Subject: "IS", CourseNumber: "4300", Title: "Information Retrieval", Credits: 4},
}

func builtinCandidates() []domain.CourseCandidate {
	out := make([]domain.CourseCandidate, len(foundationCourses))
	copy(out, foundationCourses)
	return out
}
