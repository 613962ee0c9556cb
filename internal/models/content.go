package models

// ColorSetting is one theme color of the Content page.
type ColorSetting struct {
	RootCode int64  `db:"root_code" json:"root_code"`
	Key      string `db:"key" json:"key"`
	Value    string `db:"value" json:"value"`
}
