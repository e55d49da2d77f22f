// Package models - Content entities served by the storefront.
// These mirror the payloads of the upstream content API, so the same
// structs decode API responses, populate the cache and render handlers.
package models

import (
	"html"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

type BlogPost struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content,omitempty"`
	Author   string `json:"author"`
	Role     string `json:"role"`
	Date     string `json:"date"`
	ReadTime string `json:"read_time"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

type Instructor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio,omitempty"`
}

// Portfolio categories.
const (
	CategoryWeb      = "web"
	CategoryApp      = "app"
	CategoryBranding = "branding"
	Category3D       = "3d"
)

type PortfolioProject struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Color       string      `json:"color"`
	Tags        []string    `json:"tags,omitempty"`
	Results     []string    `json:"results,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	DemoURL     string      `json:"demo_url,omitempty"`
	Instructor  *Instructor `json:"instructor,omitempty"`
}

// Product types.
const (
	ProductTypeCourse = "course"
	ProductTypeAsset  = "asset"
)

type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Type        string   `json:"type"`
	Color       string   `json:"color"`
	Tags        []string `json:"tags"`
	Features    []string `json:"features,omitempty"`
}

type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

type TeamMember struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Role   string       `json:"role"`
	Bio    string       `json:"bio"`
	Avatar string       `json:"avatar,omitempty"`
	Social *SocialLinks `json:"social,omitempty"`
}

type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type Service struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
	Price       *PriceRange `json:"price,omitempty"`
}

// ContactForm is the payload of the contact endpoint.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// plainText strips every tag; script and style bodies go with their tags.
var plainText = bluemonday.StrictPolicy()

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

// Sanitized returns a copy with markup removed and whitespace trimmed from
// every field. The e-mail address is also lowercased. Validate the result,
// not the raw form.
func (f ContactForm) Sanitized() ContactForm {
	return ContactForm{
		Name:    cleanText(f.Name),
		Email:   strings.ToLower(cleanText(f.Email)),
		Subject: cleanText(f.Subject),
		Message: cleanText(f.Message),
	}
}

// Validate returns field-level problems keyed by JSON field name.
// An empty map means the form is acceptable. Subject is optional.
func (f *ContactForm) Validate() map[string]string {
	problems := make(map[string]string)

	name := strings.TrimSpace(f.Name)
	switch {
	case name == "":
		problems["name"] = "Name is required"
	case len([]rune(name)) < 2:
		problems["name"] = "Name must be at least 2 characters"
	}

	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		problems["email"] = "Email is required"
	case len(email) > 254:
		problems["email"] = "Email is too long"
	case !validEmail(email):
		problems["email"] = "Please enter a valid email"
	}

	if len([]rune(f.Subject)) > 100 {
		problems["subject"] = "Subject must be less than 100 characters"
	}

	msg := strings.TrimSpace(f.Message)
	switch {
	case msg == "":
		problems["message"] = "Message is required"
	case len([]rune(msg)) < 10:
		problems["message"] = "Message must be at least 10 characters"
	case len([]rune(msg)) > 1000:
		problems["message"] = "Message must be less than 1000 characters"
	}

	return problems
}

// validEmail accepts a bare address with a dotted domain.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return strings.Contains(email[at+1:], ".")
}
