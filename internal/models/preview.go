package models

// LinkPreview is metadata scraped from a band's website. Every field is optional.
type LinkPreview struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Host        string `json:"host,omitempty"`
	ThemeColor  string `json:"theme_color,omitempty"`
}
