package dto

// CreateCourseRequest adds a catalogue course. Several instructor names split
// the hours into one course per instructor.
type CreateCourseRequest struct {
	Category        string   `json:"category" validate:"max=100"`
	Name            string   `json:"name" validate:"required,max=200"`
	RequiredHours   int      `json:"requiredHours" validate:"required,min=1"`
	InstructorNames []string `json:"instructorNames" validate:"required,min=1,dive,required,max=100"`
	AssignmentMode  string   `json:"assignmentMode" validate:"required,oneof=manual automatic"`
	Evaluation      bool     `json:"evaluation"`
}

// UpdateCourseRequest replaces a single-instructor course.
type UpdateCourseRequest struct {
	Category       string `json:"category" validate:"max=100"`
	Name           string `json:"name" validate:"required,max=200"`
	RequiredHours  int    `json:"requiredHours" validate:"required,min=1"`
	InstructorName string `json:"instructorName" validate:"required,max=100"`
	AssignmentMode string `json:"assignmentMode" validate:"required,oneof=manual automatic"`
	Evaluation     bool   `json:"evaluation"`
	SortOrder      *int   `json:"sortOrder" validate:"omitempty,min=0"`
}

// CourseQuery filters the course listing.
type CourseQuery struct {
	Search         string `form:"search"`
	AssignmentMode string `form:"assignmentMode" validate:"omitempty,oneof=manual automatic"`
	Page           int    `form:"page" validate:"omitempty,min=1"`
	PageSize       int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// CreateInstructorRequest registers an instructor.
type CreateInstructorRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CourseImportRow is one validated spreadsheet row.
type CourseImportRow struct {
	Row             int
	Category        string
	Name            string
	Hours           int
	InstructorNames []string
	AssignmentMode  string
	Evaluation      bool
}

// CourseImportResult summarises a spreadsheet import.
type CourseImportResult struct {
	RowsRead           int `json:"rowsRead"`
	CoursesCreated     int `json:"coursesCreated"`
	InstructorsCreated int `json:"instructorsCreated"`
}

// ImportRowError points at one rejected spreadsheet cell.
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}
