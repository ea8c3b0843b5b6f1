package csvimport

// Column keys shared by the import schemas.
const (
	KeyQualification    = "qualification"
	KeyExamBoard        = "exam_board"
	KeySubject          = "subject"
	KeyTopic            = "topic"
	KeySubtopic         = "subtopic"
	KeyEmail            = "email"
	KeyFullName         = "full_name"
	KeyYearGroup        = "year_group"
	KeyRole             = "role"
	KeyStatus           = "status"
	KeyDate             = "date"
	KeyDay              = "day"
	KeyTime             = "time"
	KeyClassTitle       = "class_title"
	KeyClassSubject     = "class_subject"
	KeyStudents         = "students"
	KeyStaff            = "staff"
	KeyAttendanceStatus = "attendance_status"
)

var (
	TaxonomySchema = Schema{
		Name: "taxonomy",
		Columns: []Column{
			{Key: KeyQualification, Headers: []string{"Qualification"}, Required: true},
			{Key: KeyExamBoard, Headers: []string{"Exam Board"}, Required: true},
			{Key: KeySubject, Headers: []string{"Subject"}, Required: true},
			{Key: KeyTopic, Headers: []string{"Topic"}},
			{Key: KeySubtopic, Headers: []string{"Subtopic"}},
		},
	}

	TeacherSchema = Schema{
		Name: "teacher",
		Columns: []Column{
			{Key: KeyEmail, Headers: []string{"Email"}, Required: true},
			{Key: KeyFullName, Headers: []string{"Full Name", "Name"}, Required: true},
		},
	}

	StudentSchema = Schema{
		Name: "student",
		Columns: []Column{
			{Key: KeyFullName, Headers: []string{"Full Name", "Name"}, Required: true},
			{Key: KeyYearGroup, Headers: []string{"Year Group", "Year"}, Required: true},
		},
	}

	ClassCardStaffSchema = Schema{
		Name: "ClassCard staff",
		Columns: []Column{
			{Key: KeyFullName, Headers: []string{"Name"}, Required: true},
			{Key: KeyRole, Headers: []string{"Role"}, Required: true},
			{Key: KeyEmail, Headers: []string{"Email"}, Required: true},
		},
	}

	ClassCardStudentSchema = Schema{
		Name: "ClassCard student",
		Columns: []Column{
			{Key: KeyFullName, Headers: []string{"Name"}, Required: true},
			{Key: KeyStatus, Headers: []string{"Status"}},
			{Key: KeyYearGroup, Headers: []string{"Current Year Group"}},
		},
	}

	ClassCardScheduleSchema = Schema{
		Name: "ClassCard schedule",
		Columns: []Column{
			{Key: KeyDate, Headers: []string{"Date"}, Required: true},
			{Key: KeyDay, Headers: []string{"Day"}, Required: true},
			{Key: KeyTime, Headers: []string{"Time"}, Required: true},
			{Key: KeyClassTitle, Headers: []string{"Class Title"}, Required: true},
			{Key: KeyClassSubject, Headers: []string{"Class Subject"}, Required: true, AllowEmpty: true},
			{Key: KeyStudents, Headers: []string{"Students"}, Required: true, AllowEmpty: true},
			{Key: KeyStaff, Headers: []string{"Staff"}, Required: true},
			{Key: KeyAttendanceStatus, Headers: []string{"Attendance Status"}, Required: true},
		},
	}
)
