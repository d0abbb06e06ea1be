package curriculum

// LessonEntry is a catalog lesson loaded into the lessons table on first start
type LessonEntry struct {
	StudyYear   string
	Subject     string
	Category    string
	Name        string
	Description string
}

var lessonCatalog = []LessonEntry{
	{"7th_grade", "math", "الجبر", "المعادلات من الدرجة الأولى", "حل المعادلات الخطية في متغير واحد"},
	{"7th_grade", "science", "الأحياء", "الخلية", "تركيب الخلية الحيوانية والنباتية"},
	{"8th_grade", "math", "الهندسة", "نظرية فيثاغورس", "العلاقة بين أضلاع المثلث القائم"},
	{"8th_grade", "english", "Grammar", "Present Perfect", "Forming and using the present perfect tense"},
	{"9th_grade", "science", "الفيزياء", "الحركة والسرعة", "مفهوم السرعة والتسارع"},
	{"9th_grade", "history", "التاريخ الحديث", "الجهاد الليبي", "مقاومة الاحتلال الإيطالي"},
	{"1st_secondary", "chemistry", "الكيمياء العامة", "الجدول الدوري", "تصنيف العناصر وخواصها الدورية"},
	{"1st_secondary", "physics", "الميكانيكا", "قوانين نيوتن", "القوانين الثلاثة للحركة"},
	{"2nd_secondary_scientific", "math", "التفاضل", "النهايات", "مفهوم النهاية وحسابها"},
	{"2nd_secondary_scientific", "biology", "الوراثة", "قوانين مندل", "انتقال الصفات الوراثية"},
	{"2nd_secondary_literary", "philosophy", "المنطق", "القياس", "القياس المنطقي وأشكاله"},
	{"2nd_secondary_literary", "geography", "الجغرافيا الطبيعية", "المناخ في ليبيا", "الأقاليم المناخية وخصائصها"},
	{"3rd_secondary_scientific", "physics", "الكهرباء", "الحث الكهرومغناطيسي", "قانون فاراداي وتطبيقاته"},
	{"3rd_secondary_scientific", "chemistry", "الكيمياء العضوية", "الهيدروكربونات", "الألكانات والألكينات والألكاينات"},
	{"3rd_secondary_literary", "arabic", "البلاغة", "التشبيه", "أركان التشبيه وأنواعه"},
	{"3rd_secondary_literary", "statistics", "الإحصاء الوصفي", "مقاييس النزعة المركزية", "الوسط والوسيط والمنوال"},
}

// Lessons returns the built-in lesson catalog
func Lessons() []LessonEntry {
	out := make([]LessonEntry, len(lessonCatalog))
	copy(out, lessonCatalog)
	return out
}
