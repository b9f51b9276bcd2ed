package domain

import (
	"strconv"
	"time"
)

type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

type Qualification struct {
	Type      string `json:"qualification_type"`
	Institute string `json:"institute,omitempty"`
}

type Profession struct {
	Type         string `json:"profession_type"`
	Organization string `json:"organization,omitempty"`
}

type User struct {
	ID              int           `json:"id"`
	Fullname        string        `json:"fullname"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	Password        string        `json:"-"`
	Gender          string        `json:"gender"`
	DOB             string        `json:"dob"` // DD-MM-YYYY
	Location        Location      `json:"location"`
	Qualification   Qualification `json:"qualification"`
	Profession      Profession    `json:"profession"`
	Hobbies         []string      `json:"hobbies"`
	Interests       []string      `json:"interests"`
	Description     *string       `json:"description"`
	RegisterDate    time.Time     `json:"register_date"`
	HasPendingMatch bool          `json:"has_pending_match"`
	InConversation  bool          `json:"in_conversation"`
	Rejected        []int         `json:"rejected,omitempty"`
}

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// BirthYear parses the year component out of the DD-MM-YYYY date of birth.
// Returns 0 when the field is malformed.
func (u *User) BirthYear() int {
	if len(u.DOB) < 4 {
		return 0
	}
	year, err := strconv.Atoi(u.DOB[len(u.DOB)-4:])
	if err != nil {
		return 0
	}
	return year
}

func (u *User) Age() int {
	return time.Now().Year() - u.BirthYear()
}

func (u *User) HasRejected(userID int) bool {
	for _, id := range u.Rejected {
		if id == userID {
			return true
		}
	}
	return false
}

// OppositeGender returns the gender the user is matched against. The
// matching model is binary only.
func (u *User) OppositeGender() string {
	if u.Gender == GenderMale {
		return GenderFemale
	}
	return GenderMale
}
