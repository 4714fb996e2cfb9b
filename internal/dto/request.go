package dto

import "mime/multipart"

// UserForm is the multipart body of POST and PUT on the user routes.
type UserForm struct {
	Name           string                `form:"name"`
	Email          string                `form:"email"`
	ProfilePicture *multipart.FileHeader `form:"profilePicture"`
}

// FileForm is the multipart body of POST on the file routes.
type FileForm struct {
	File *multipart.FileHeader `form:"file"`
}
