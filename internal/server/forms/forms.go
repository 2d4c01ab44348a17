package forms

import (
	"strings"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
)

const passwordsMustMatch = "Passwords must match"

type SignupForm struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

func (f *SignupForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

func (f SignupForm) Validate() Errors {
	var errs Errors
	errs.check("username", f.Username, MinLength(common.MinUsernameLength))
	errs.check("email", f.Email, Length(common.MinEmailLength, common.MaxEmailLength), Email())
	errs.check("password", f.Password, Required(), EqualTo(f.Confirm, passwordsMustMatch))
	return errs
}

type LoginForm struct {
	Username string
	Password string
}

func (f *LoginForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

func (f LoginForm) Validate() Errors {
	var errs Errors
	errs.check("username", f.Username, Required())
	errs.check("password", f.Password, Required())
	return errs
}

// ProfileForm edits username and email under the signup rules.
type ProfileForm struct {
	Username string
	Email    string
}

func (f *ProfileForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

func (f ProfileForm) Validate() Errors {
	var errs Errors
	errs.check("username", f.Username, MinLength(common.MinUsernameLength))
	errs.check("email", f.Email, Length(common.MinEmailLength, common.MaxEmailLength), Email())
	return errs
}

// VideoForm backs both the new and the edit page. Confirmed holds the raw
// checkbox value.
type VideoForm struct {
	Content   string
	Confirmed string
}

func (f *VideoForm) Normalize() {
	f.Content = strings.TrimSpace(f.Content)
}

func (f VideoForm) IsConfirmed() bool { return f.Confirmed != "" }

func (f VideoForm) Validate() Errors {
	errs := f.ValidateContent()
	errs.check("confirmed", f.Confirmed, Checked("Please confirm the video."))
	return errs
}

// ValidateContent checks the link only; editing never touches confirmation.
func (f VideoForm) ValidateContent() Errors {
	var errs Errors
	errs.check("video", f.Content, Length(common.MinVideoContentLength, common.MaxVideoContentLength))
	return errs
}
