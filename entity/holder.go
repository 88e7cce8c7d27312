package entity

import "github.com/biter777/countries"

// Holder is the ticket owner as known to the registration flow.
type Holder struct {
	Id      string `json:"id" bson:"id"`
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Country string `json:"country" bson:"country"`
}

type HolderView struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Country string `json:"country,omitempty"`
}

// CountryCode returns the ISO alpha-2 code for the stored country, which may be
// a name or already a code. Unknown values give an empty string.
func (h *Holder) CountryCode() string {
	if h.Country == "" {
		return ""
	}
	country := countries.ByName(h.Country)
	if country == countries.Unknown {
		return ""
	}
	code := country.Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}

func (h *Holder) View() HolderView {
	return HolderView{
		Id:      h.Id,
		Name:    h.Name,
		Email:   h.Email,
		Country: h.CountryCode(),
	}
}
