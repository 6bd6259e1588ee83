package model

// PasswordPolicy describes the enforced password rules to clients
type PasswordPolicy struct {
	MinLength           int    `json:"min_length"`
	MaxLength           int    `json:"max_length"`
	RequireUppercase    bool   `json:"require_uppercase"`
	RequireLowercase    bool   `json:"require_lowercase"`
	RequireNumbers      bool   `json:"require_numbers"`
	RequireSpecialChars bool   `json:"require_special_chars"`
	AllowedSpecialChars string `json:"allowed_special_chars"`
}
