package models

// Year is an academic year (grade level) owned by a root.
type Year struct {
	YearCode int64  `db:"year_code" json:"year_code"`
	RootCode int64  `db:"root_code" json:"root_code"`
	YearName string `db:"year_name" json:"year_name"`
}

// Subject carries denormalized root and year names for display.
type Subject struct {
	SubjectCode int64  `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	IsPrimary   bool   `db:"is_primary" json:"is_primary"`
	YearCode    int64  `db:"year_code" json:"year_code"`
	RootCode    int64  `db:"root_code" json:"root_code"`
	RootName    string `db:"root_name" json:"root_name"`
	YearName    string `db:"year_name" json:"year_name"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	RootCode int64
	YearCode int64
	Search   string
}

// Teacher is a teacher profile.
type Teacher struct {
	TeacherCode int64  `db:"teacher_code" json:"teacher_code"`
	RootCode    int64  `db:"root_code" json:"root_code"`
	Name        string `db:"name" json:"name"`
	Phone       string `db:"phone" json:"phone"`
	Email       string `db:"email" json:"email"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

// Teach assigns a teacher to a subject, separate from the profile.
type Teach struct {
	TeachCode   int64  `db:"teach_code" json:"teach_code"`
	RootCode    int64  `db:"root_code" json:"root_code"`
	TeacherCode int64  `db:"teacher_code" json:"teacher_code"`
	SubjectCode int64  `db:"subject_code" json:"subject_code"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}
