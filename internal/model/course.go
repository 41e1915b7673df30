package model

import (
	"fmt"
	"strings"
)

// Subject is a course code. SubjectAll marks records that apply to every course.
type Subject string

const SubjectAll Subject = "ALL"

type Level string

const (
	LevelNone       Level = ""
	LevelFoundation Level = "foundation"
	LevelDiploma    Level = "diploma"
	LevelDegree     Level = "degree"
)

// CourseInfo describes a course a user can select.
type CourseInfo struct {
	ID        Subject
	Name      string
	ShortName string
	Level     Level
	HasOPPE   bool
	HasQuiz1  bool
	HasQuiz2  bool
	IsProject bool
}

// Courses lists every selectable course in display order.
var Courses = []CourseInfo{
	// Foundation
	{ID: "MATHS1", Name: "Mathematics for Data Science 1", ShortName: "Maths 1", Level: LevelFoundation, HasQuiz1: true, HasQuiz2: true},
	{ID: "ENG1", Name: "English 1", ShortName: "English 1", Level: LevelFoundation, HasQuiz1: true, HasQuiz2: true},
	{ID: "CT", Name: "Computational Thinking", ShortName: "CT", Level: LevelFoundation, HasQuiz1: true, HasQuiz2: true},
	{ID: "STATS1", Name: "Statistics for Data Science 1", ShortName: "Stats 1", Level: LevelFoundation, HasQuiz1: true, HasQuiz2: true},
	{ID: "MATHS2", Name: "Mathematics for Data Science 2", ShortName: "Maths 2", Level: LevelFoundation, HasQuiz1: true, HasQuiz2: true},
	{ID: "ENG2", Name: "English 2", ShortName: "English 2", Level: LevelFoundation, HasQuiz1: true, HasQuiz2: true},
	{ID: "PYTHON", Name: "Introduction to Python Programming", ShortName: "Python", Level: LevelFoundation, HasOPPE: true, HasQuiz1: true},
	{ID: "STATS2", Name: "Statistics for Data Science 2", ShortName: "Stats 2", Level: LevelFoundation, HasQuiz1: true, HasQuiz2: true},
	// Diploma
	{ID: "MLF", Name: "Machine Learning Foundations", ShortName: "MLF", Level: LevelDiploma, HasQuiz1: true, HasQuiz2: true},
	{ID: "MLT", Name: "Machine Learning Techniques", ShortName: "MLT", Level: LevelDiploma, HasQuiz1: true, HasQuiz2: true},
	{ID: "MLP", Name: "Machine Learning Practice", ShortName: "MLP", Level: LevelDiploma, HasOPPE: true},
	{ID: "BDM", Name: "Business Data Management", ShortName: "BDM", Level: LevelDiploma, HasQuiz1: true, HasQuiz2: true},
	{ID: "BA", Name: "Business Analytics", ShortName: "BA", Level: LevelDiploma, HasQuiz1: true, HasQuiz2: true},
	{ID: "TDS", Name: "Tools in Data Science", ShortName: "TDS", Level: LevelDiploma},
	{ID: "PDSA", Name: "Programming, DSA using Python", ShortName: "PDSA", Level: LevelDiploma, HasOPPE: true, HasQuiz1: true, HasQuiz2: true},
	{ID: "DBMS", Name: "Database Management Systems", ShortName: "DBMS", Level: LevelDiploma, HasOPPE: true, HasQuiz1: true, HasQuiz2: true},
	{ID: "MAD1", Name: "Application Development 1", ShortName: "MAD 1", Level: LevelDiploma, HasQuiz1: true, HasQuiz2: true},
	{ID: "JAVA", Name: "Programming Concepts using Java", ShortName: "Java", Level: LevelDiploma, HasOPPE: true, HasQuiz1: true, HasQuiz2: true},
	{ID: "SC", Name: "System Commands", ShortName: "SC", Level: LevelDiploma, HasOPPE: true, HasQuiz1: true},
	{ID: "MAD2", Name: "Application Development 2", ShortName: "MAD 2", Level: LevelDiploma, HasQuiz1: true, HasQuiz2: true},
	{ID: "DL_GENAI", Name: "Intro to Deep Learning & GenAI", ShortName: "DL GenAI", Level: LevelDiploma, HasQuiz1: true, HasQuiz2: true},
	// Diploma projects
	{ID: "MLP_PROJ", Name: "MLP Project", ShortName: "MLP Proj", Level: LevelDiploma, IsProject: true},
	{ID: "BDM_PROJ", Name: "BDM Project", ShortName: "BDM Proj", Level: LevelDiploma, IsProject: true},
	{ID: "MAD1_PROJ", Name: "MAD 1 Project", ShortName: "MAD1 Proj", Level: LevelDiploma, IsProject: true},
	{ID: "MAD2_PROJ", Name: "MAD 2 Project", ShortName: "MAD2 Proj", Level: LevelDiploma, IsProject: true},
	{ID: "DL_GENAI_PROJ", Name: "DL GenAI Project", ShortName: "DLG Proj", Level: LevelDiploma, IsProject: true},
	// Degree
	{ID: "ST", Name: "Software Testing", ShortName: "ST", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "SE", Name: "Software Engineering", ShortName: "SE", Level: LevelDegree, HasQuiz2: true},
	{ID: "DL", Name: "Deep Learning", ShortName: "DL", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "AI_SM", Name: "AI: Search Methods for Problem Solving", ShortName: "AI Search", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "SPG", Name: "Strategies for Professional Growth", ShortName: "SPG", Level: LevelDegree, HasQuiz2: true},
	{ID: "BIG_DATA", Name: "Introduction to Big Data", ShortName: "Big Data", Level: LevelDegree, HasOPPE: true},
	{ID: "C_PROG", Name: "Programming in C", ShortName: "C Prog", Level: LevelDegree, HasOPPE: true, HasQuiz1: true},
	{ID: "DL_CV", Name: "Deep Learning for CV", ShortName: "DL CV", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "LLM", Name: "Large Language Models", ShortName: "LLM", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "DLP", Name: "Deep Learning Practice", ShortName: "DLP", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "INDUSTRY4", Name: "Industry 4.0", ShortName: "Ind 4.0", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "OS", Name: "Operating Systems", ShortName: "OS", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "RL", Name: "Special Topics in ML (RL)", ShortName: "RL", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "CORP_FIN", Name: "Corporate Finance", ShortName: "Corp Fin", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "COMP_NET", Name: "Computer Networks", ShortName: "Comp Net", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "DS_AI_LAB", Name: "Data Science and AI Lab", ShortName: "DS AI Lab", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "APPDEV_LAB", Name: "Application Development Lab", ShortName: "AppDev Lab", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "BIOINFO", Name: "Algorithmic Thinking in Bioinformatics", ShortName: "Bioinfo", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "BIO_NET", Name: "Big Data and Biological Networks", ShortName: "Bio Net", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "MKT_RES", Name: "Market Research", ShortName: "Mkt Res", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "STAT_COMP", Name: "Statistical Computing", ShortName: "Stat Comp", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "ADV_ALGO", Name: "Advanced Algorithms", ShortName: "Adv Algo", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "MGRL_ECON", Name: "Managerial Economics", ShortName: "Mgrl Econ", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "SPEECH_TECH", Name: "Speech Technology", ShortName: "Speech", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "MLOPS", Name: "Machine Learning Operations", ShortName: "MLOps", Level: LevelDegree, HasOPPE: true},
	{ID: "MATH_GENAI", Name: "Mathematical Foundations of GenAI", ShortName: "Math GenAI", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
	{ID: "TOC", Name: "Theory of Computation", ShortName: "ToC", Level: LevelDegree, HasQuiz1: true, HasQuiz2: true},
}

var courseIndex = func() map[Subject]int {
	index := make(map[Subject]int, len(Courses))
	for i, c := range Courses {
		index[c.ID] = i
	}
	return index
}()

var levelColors = map[Level]string{
	LevelFoundation: "steel",
	LevelDiploma:    "amber",
	LevelDegree:     "emerald",
}

// LookupCourse finds course metadata. SubjectAll is not a course.
func LookupCourse(s Subject) (CourseInfo, bool) {
	i, ok := courseIndex[s]
	if !ok {
		return CourseInfo{}, false
	}
	return Courses[i], true
}

// Label is the short display name. Unknown codes fall back to the raw code.
func (s Subject) Label() string {
	if s == SubjectAll {
		return "All Courses"
	}
	if c, ok := LookupCourse(s); ok {
		return c.ShortName
	}
	return string(s)
}

func (s Subject) Level() Level {
	if c, ok := LookupCourse(s); ok {
		return c.Level
	}
	return LevelNone
}

// Color is the accent colour for the subject's level, "muted" when there is none.
func (s Subject) Color() string {
	if color, ok := levelColors[s.Level()]; ok {
		return color
	}
	return "muted"
}

// courseOrder is used to sort subjects the way Courses lists them; unknown codes go last.
func (s Subject) courseOrder() int {
	if i, ok := courseIndex[s]; ok {
		return i
	}
	return len(Courses)
}

// SortSubjects orders subjects by catalog position, unknown codes last in input order.
func SortSubjects(subjects []Subject) {
	// insertion sort keeps it stable and the slices are tiny
	for i := 1; i < len(subjects); i++ {
		for j := i; j > 0 && subjects[j].courseOrder() < subjects[j-1].courseOrder(); j-- {
			subjects[j], subjects[j-1] = subjects[j-1], subjects[j]
		}
	}
}

// ParseSubjects validates raw course codes, case-insensitively, and drops duplicates.
func ParseSubjects(raw []string) ([]Subject, error) {
	seen := make(map[Subject]bool, len(raw))
	subjects := make([]Subject, 0, len(raw))
	for _, r := range raw {
		s := Subject(strings.ToUpper(strings.TrimSpace(r)))
		if s == "" {
			continue
		}
		if _, ok := LookupCourse(s); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCourse, r)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		subjects = append(subjects, s)
	}
	return subjects, nil
}
