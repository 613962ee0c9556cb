package models

// Group is a permission group of a root.
type Group struct {
	GroupCode int64  `db:"group_code" json:"group_code"`
	RootCode  int64  `db:"root_code" json:"root_code"`
	GroupName string `db:"group_name" json:"group_name"`
}

// Page is an application page that can be granted to groups.
type Page struct {
	PageCode int64  `db:"page_code" json:"page_code"`
	RootCode int64  `db:"root_code" json:"root_code"`
	PageName string `db:"page_name" json:"page_name"`
	PagePath string `db:"page_path" json:"page_path"`
}

// GroupPage is a (group, page, {insert, update, delete}) authorization tuple.
type GroupPage struct {
	GroupCode  int64  `db:"group_code" json:"group_code"`
	PageCode   int64  `db:"page_code" json:"page_code"`
	GroupName  string `db:"group_name" json:"group_name"`
	PageName   string `db:"page_name" json:"page_name"`
	InsertFlag bool   `db:"insert_flag" json:"insert_flag"`
	UpdateFlag bool   `db:"update_flag" json:"update_flag"`
	DeleteFlag bool   `db:"delete_flag" json:"delete_flag"`
}

// AuthorityCascade is everything the assignment screen needs for one root.
type AuthorityCascade struct {
	RootCode   int64       `json:"root_code"`
	Groups     []Group     `json:"groups"`
	Pages      []Page      `json:"pages"`
	GroupPages []GroupPage `json:"group_pages"`
}
