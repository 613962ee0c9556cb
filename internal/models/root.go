package models

// RootKind distinguishes tenant types.
type RootKind string

const (
	RootKindCenter  RootKind = "CENTER"
	RootKindTeacher RootKind = "TEACHER"
)

// Root is a tenant: a center or an independent teacher.
type Root struct {
	RootCode int64    `db:"root_code" json:"root_code"`
	Name     string   `db:"name" json:"name"`
	Kind     RootKind `db:"kind" json:"kind"`
	IsActive bool     `db:"is_active" json:"is_active"`
}

// Branch belongs to a root.
type Branch struct {
	BranchCode int64  `db:"branch_code" json:"branch_code"`
	RootCode   int64  `db:"root_code" json:"root_code"`
	Name       string `db:"name" json:"name"`
	Address    string `db:"address" json:"address"`
	Phone      string `db:"phone" json:"phone"`
	IsActive   bool   `db:"is_active" json:"is_active"`
}
