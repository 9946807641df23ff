package types

import "html/template"

type NavbarData struct {
	IsAuthenticated bool
	UserID          string
	UserName        string
	UserEmail       string
	IsAdmin         bool
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
	SetFlash(notice, err string)
	SetCSRFField(field template.HTML)
}

type BasePageData struct {
	Title     string
	Notice    string
	Error     string
	CSRFField template.HTML
	Navbar    NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

// SetFlash keeps messages already set by the handler.
func (d *BasePageData) SetFlash(notice, err string) {
	if d.Notice == "" {
		d.Notice = notice
	}
	if d.Error == "" {
		d.Error = err
	}
}

func (d *BasePageData) SetCSRFField(field template.HTML) {
	d.CSRFField = field
}

type LoginPageData struct {
	BasePageData
	Email string
}

type SignupPageData struct {
	BasePageData
	Form        RegisterForm
	FieldErrors map[string]string
}

type PickupPageData struct {
	BasePageData
	Form        PickupForm
	FieldErrors map[string]string
	Categories  []FoodCategory
	FoodTypes   []FoodType
}

type ActivitiesPageData struct {
	BasePageData
	Donations []*Donation
}

type ProfilePageData struct {
	BasePageData
	Volunteer *Volunteer
}

type AdminVolunteersPageData struct {
	BasePageData
	Query      string
	Volunteers []*Volunteer
}

type AdminDonationsPageData struct {
	BasePageData
	Donations []*Donation
}

type AdminDonationDetailPageData struct {
	BasePageData
	Donation       *Donation
	DefaultCredits int
	MinCredits     int
	MaxCredits     int
}
