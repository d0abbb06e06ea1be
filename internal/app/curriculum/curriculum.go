package curriculum

import (
	"fmt"
	"strings"

	"github.com/afhamha/afhamha/internal/pkg/apperrors"
)

// Subject language codes
const (
	LanguageArabic  = "ar"
	LanguageEnglish = "en"
)

const defaultIcon = "📘"

// StudyYear is one school year of the national curriculum
type StudyYear struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	NameAR string `json:"nameAr"`
	// Folder is the directory holding the year's reference books
	Folder string `json:"-"`
}

// Subject is a subject taught in a study year
type Subject struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	NameEN   string `json:"nameEn"`
	Language string `json:"language"`
	Icon     string `json:"icon"`
}

// IsEnglish reports whether the subject is taught in English
func (s Subject) IsEnglish() bool {
	return s.Language == LanguageEnglish
}

// ReferenceFile describes a downloadable textbook for a subject
type ReferenceFile struct {
	Subject string `json:"subject"`
	Title   string `json:"title"`
	Path    string `json:"path"`
}

var studyYears = []StudyYear{
	{Key: "7th_grade", Name: "7th Grade (Preparatory)", NameAR: "الصف السابع", Folder: "7th_grade"},
	{Key: "8th_grade", Name: "8th Grade (Preparatory)", NameAR: "الصف الثامن", Folder: "8th_grade"},
	{Key: "9th_grade", Name: "9th Grade (Preparatory)", NameAR: "الصف التاسع", Folder: "9th_grade"},
	{Key: "1st_secondary", Name: "1st Secondary (General)", NameAR: "الأول الثانوي", Folder: "1st_secandory"},
	{Key: "2nd_secondary_literary", Name: "2nd Secondary (Literary)", NameAR: "الثاني الثانوي أدبي", Folder: "2nd_secandory_L"},
	{Key: "2nd_secondary_scientific", Name: "2nd Secondary (Scientific)", NameAR: "الثاني الثانوي علمي", Folder: "2nd_secandory_s"},
	{Key: "3rd_secondary_literary", Name: "3rd Secondary (Literary)", NameAR: "الثالث الثانوي أدبي", Folder: "3rd_secandory_L"},
	{Key: "3rd_secondary_scientific", Name: "3rd Secondary (Scientific)", NameAR: "الثالث الثانوي علمي", Folder: "3rd_secandory_S"},
}

var subjects = map[string]Subject{
	"islamic":    {Key: "islamic", Name: "التربية الإسلامية", NameEN: "Islamic Studies", Language: LanguageArabic},
	"arabic":     {Key: "arabic", Name: "اللغة العربية", NameEN: "Arabic", Language: LanguageArabic},
	"english":    {Key: "english", Name: "اللغة الإنجليزية", NameEN: "English", Language: LanguageEnglish},
	"math":       {Key: "math", Name: "الرياضيات", NameEN: "Mathematics", Language: LanguageArabic},
	"science":    {Key: "science", Name: "العلوم", NameEN: "Science", Language: LanguageArabic},
	"history":    {Key: "history", Name: "التاريخ", NameEN: "History", Language: LanguageArabic},
	"geography":  {Key: "geography", Name: "الجغرافيا", NameEN: "Geography", Language: LanguageArabic},
	"civics":     {Key: "civics", Name: "التربية الوطنية", NameEN: "Civics", Language: LanguageArabic},
	"computer":   {Key: "computer", Name: "الحاسوب", NameEN: "Computer Science", Language: LanguageArabic},
	"physics":    {Key: "physics", Name: "الفيزياء", NameEN: "Physics", Language: LanguageArabic},
	"chemistry":  {Key: "chemistry", Name: "الكيمياء", NameEN: "Chemistry", Language: LanguageArabic},
	"biology":    {Key: "biology", Name: "الأحياء", NameEN: "Biology", Language: LanguageArabic},
	"geology":    {Key: "geology", Name: "علم الأرض", NameEN: "Geology", Language: LanguageArabic},
	"philosophy": {Key: "philosophy", Name: "الفلسفة", NameEN: "Philosophy", Language: LanguageArabic},
	"sociology":  {Key: "sociology", Name: "علم الاجتماع", NameEN: "Sociology", Language: LanguageArabic},
	"psychology": {Key: "psychology", Name: "علم النفس", NameEN: "Psychology", Language: LanguageArabic},
	"statistics": {Key: "statistics", Name: "الإحصاء", NameEN: "Statistics", Language: LanguageArabic},
}

var subjectIcons = map[string]string{
	"islamic":    "🕌",
	"arabic":     "📖",
	"english":    "🔤",
	"math":       "➗",
	"science":    "🔬",
	"history":    "🏛️",
	"geography":  "🌍",
	"civics":     "🇱🇾",
	"computer":   "💻",
	"physics":    "⚛️",
	"chemistry":  "🧪",
	"biology":    "🧬",
	"geology":    "🪨",
	"philosophy": "🤔",
	"sociology":  "👥",
	"psychology": "🧠",
	"statistics": "📊",
}

var (
	preparatory = []string{"islamic", "arabic", "english", "math", "science", "history", "geography", "civics", "computer"}
	literary    = []string{"islamic", "arabic", "english", "history", "geography", "philosophy", "sociology", "psychology", "statistics"}
)

var yearSubjects = map[string][]string{
	"7th_grade":                preparatory,
	"8th_grade":                preparatory,
	"9th_grade":                preparatory,
	"1st_secondary":            {"islamic", "arabic", "english", "math", "physics", "chemistry", "biology", "history", "geography", "computer"},
	"2nd_secondary_literary":   literary,
	"2nd_secondary_scientific": {"islamic", "arabic", "english", "math", "physics", "chemistry", "biology", "geology", "computer"},
	"3rd_secondary_literary":   literary,
	"3rd_secondary_scientific": {"islamic", "arabic", "english", "math", "physics", "chemistry", "biology", "geology"},
}

// StudyYears returns every study year in school order
func StudyYears() []StudyYear {
	out := make([]StudyYear, len(studyYears))
	copy(out, studyYears)
	return out
}

// IsValidYear reports whether key names a known study year
func IsValidYear(key string) bool {
	_, ok := yearSubjects[key]
	return ok
}

// FindYear returns the study year with the given key
func FindYear(key string) (StudyYear, error) {
	for _, y := range studyYears {
		if y.Key == key {
			return y, nil
		}
	}
	return StudyYear{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownStudyYear, key)
}

// Subjects returns the subjects taught in a study year
func Subjects(year string) ([]Subject, error) {
	keys, ok := yearSubjects[year]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownStudyYear, year)
	}

	out := make([]Subject, 0, len(keys))
	for _, key := range keys {
		s := subjects[key]
		s.Icon = Icon(key)
		out = append(out, s)
	}
	return out, nil
}

// FindSubject looks up a subject of the year by key, Arabic name or English name
func FindSubject(year, name string) (Subject, error) {
	list, err := Subjects(year)
	if err != nil {
		return Subject{}, err
	}

	needle := strings.TrimSpace(name)
	for _, s := range list {
		if strings.EqualFold(s.Key, needle) || s.Name == needle || strings.EqualFold(s.NameEN, needle) {
			return s, nil
		}
	}
	return Subject{}, fmt.Errorf("%w: %q in %s", apperrors.ErrUnknownSubject, name, year)
}

// Icon returns the icon shown next to a subject
func Icon(subject string) string {
	if icon, ok := subjectIcons[subject]; ok {
		return icon
	}
	return defaultIcon
}

// ReferenceFiles lists the textbooks available for a study year. Unknown years have none.
func ReferenceFiles(year string) []ReferenceFile {
	y, err := FindYear(year)
	if err != nil {
		return nil
	}

	keys := yearSubjects[year]
	out := make([]ReferenceFile, 0, len(keys))
	for _, key := range keys {
		s := subjects[key]
		out = append(out, ReferenceFile{
			Subject: key,
			Title:   "كتاب " + s.Name,
			Path:    "References/" + y.Folder + "/" + key + ".pdf",
		})
	}
	return out
}
