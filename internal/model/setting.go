package model

type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

const SettingTheme = "theme"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type ThemeInput struct {
	Theme Theme `json:"theme" validate:"required,oneof=light dark"`
}
